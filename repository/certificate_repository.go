package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

type CertificateFilter struct {
	PlacementID *uint
	StudentID   *uint
	Status      string
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

// Create inserts a certificate unless the placement already has a live one.
// The unique index on active_placement_id settles concurrent inserts.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	placementID := cert.PlacementID
	cert.ActivePlacementID = &placementID

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Certificate{}).
			Where("active_placement_id = ?", placementID).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return apperror.Conflict("placement %d already has an active certificate", placementID)
		}
		return tx.Create(cert).Error
	})
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) != "" {
		return err
	}
	if isDuplicate(err) {
		return apperror.Conflict("placement %d already has an active certificate", placementID)
	}
	return fmt.Errorf("create certificate: %w", err)
}

func (r *CertificateRepository) FindByID(ctx context.Context, id uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.DB.WithContext(ctx).First(&cert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("certificate %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate %d: %w", id, err)
	}
	return &cert, nil
}

// FindLiveByPlacement returns the placement's non-REJECTED certificate.
func (r *CertificateRepository) FindLiveByPlacement(ctx context.Context, placementID uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.DB.WithContext(ctx).Where("active_placement_id = ?", placementID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("no active certificate for placement %d", placementID)
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate of placement %d: %w", placementID, err)
	}
	return &cert, nil
}

func (r *CertificateRepository) List(ctx context.Context, filter CertificateFilter) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	query := r.DB.WithContext(ctx).Model(&models.Certificate{})
	if filter.PlacementID != nil {
		query = query.Where("placement_id = ?", *filter.PlacementID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Order("created_at DESC, id DESC").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// Transition applies fields only while the stored status is one of from.
// Moving to REJECTED releases the placement for a new certificate.
func (r *CertificateRepository) Transition(ctx context.Context, id uint, from []string, to string, fields map[string]interface{}) (bool, error) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["status"] = to
	fields["updated_at"] = time.Now()
	if to == models.CertificateRejected {
		fields["active_placement_id"] = nil
	}

	res := r.DB.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("move certificate %d to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SaveDetails persists the descriptive and artifact columns of cert.
func (r *CertificateRepository) SaveDetails(ctx context.Context, cert *models.Certificate) error {
	err := r.DB.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", cert.ID).
		Updates(map[string]interface{}{
			"practice_id":    cert.PracticeID,
			"student_name":   cert.StudentName,
			"professor_id":   cert.ProfessorID,
			"professor_name": cert.ProfessorName,
			"practice_name":  cert.PracticeName,
			"total_hours":    cert.TotalHours,
			"start_date":     cert.StartDate,
			"end_date":       cert.EndDate,
			"pdf_path":       cert.PdfPath,
			"pdf_url":        cert.PdfURL,
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("save certificate %d: %w", cert.ID, err)
	}
	return nil
}

// ListIncomplete returns PENDING and APPROVED certificates whose descriptive
// fields are blank or still placeholders, oldest first.
func (r *CertificateRepository) ListIncomplete(ctx context.Context, limit int) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.DB.WithContext(ctx).
		Where("status IN ?", []string{models.CertificatePending, models.CertificateApproved}).
		Where(r.DB.
			Where("student_name = '' OR student_name LIKE ?", "Student #%").
			Or("practice_name = '' OR practice_name LIKE ?", "Practice #%").
			Or("professor_id IS NOT NULL AND (professor_name = '' OR professor_name LIKE ?)", "Professor #%").
			Or("total_hours <= 0 OR start_date IS NULL OR end_date IS NULL")).
		Order("id ASC").
		Limit(limit).
		Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("list incomplete certificates: %w", err)
	}
	return certs, nil
}
