package services

import (
	"context"
	"time"

	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff reports whether the actor is a coordinator or an admin.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleCoordinator || a.Role == models.RoleAdmin
}

type PlacementStore interface {
	Create(ctx context.Context, placement *models.Placement) error
	FindByID(ctx context.Context, id uint) (*models.Placement, error)
	VisibleIDs(ctx context.Context, scope repository.PlacementScope) ([]uint, error)
	OpenIDs(ctx context.Context) ([]uint, error)
	CompareAndSetStatus(ctx context.Context, id uint, from, to string, at time.Time) (bool, error)
	CompareAndSetAssignment(ctx context.Context, id uint, from []string, expectProfessor *uint, to string, professorID *uint) (bool, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetCompletedHours(ctx context.Context, id uint, hours float64) error
}

// HourTotals sums logged hours per placement.
type HourTotals interface {
	SumHours(ctx context.Context, placementID uint, statuses []string, excludeID uint) (float64, error)
}

type HourLogStore interface {
	HourTotals
	Create(ctx context.Context, log *models.HourLog) error
	FindByID(ctx context.Context, id uint) (*models.HourLog, error)
	List(ctx context.Context, filter repository.HourLogFilter) ([]models.HourLog, error)
	CountByStatus(ctx context.Context, placementID uint) ([]repository.StatusCount, error)
	UpdatePending(ctx context.Context, id, studentID uint, fields map[string]interface{}) (bool, error)
	DeletePending(ctx context.Context, id, studentID uint) (bool, error)
	StampApproval(ctx context.Context, id uint, slot string, approval models.Approval) (bool, error)
	PromoteIfComplete(ctx context.Context, id uint) (bool, error)
	Reject(ctx context.Context, id, reviewerID uint, role, comments string, at time.Time) (bool, error)
}

type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id uint) (*models.Certificate, error)
	List(ctx context.Context, filter repository.CertificateFilter) ([]models.Certificate, error)
	Transition(ctx context.Context, id uint, from []string, to string, fields map[string]interface{}) (bool, error)
	SaveDetails(ctx context.Context, cert *models.Certificate) error
	ListIncomplete(ctx context.Context, limit int) ([]models.Certificate, error)
}

// Directory resolves user identities.
type Directory interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

type Catalog interface {
	FindPractice(ctx context.Context, id uint) (*models.Practice, error)
}

// HoursObserver is told about every full recomputation of a placement's
// completed hours.
type HoursObserver interface {
	HoursRecomputed(ctx context.Context, placement *models.Placement)
}

// CertificateRequester asks the document service for a certificate.
type CertificateRequester interface {
	RequestCertificate(ctx context.Context, req contracts.GenerateCertificateRequest) (*contracts.CertificateReceipt, error)
}

// CompletionDispatcher fires the certificate request of a completed placement.
type CompletionDispatcher interface {
	Fire(ctx context.Context, placement *models.Placement) TriggerResult
}

// SummaryFetcher reads placement data from the practice service.
type SummaryFetcher interface {
	PlacementSummary(ctx context.Context, placementID uint) (*contracts.PlacementSummary, error)
}

// CertificateRenderer stores certificate PDFs.
type CertificateRenderer interface {
	Render(cert *models.Certificate) (string, error)
	Open(path string) ([]byte, error)
}
