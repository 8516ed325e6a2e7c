package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	CertificatePending  = "PENDING"
	CertificateApproved = "APPROVED"
	CertificateRejected = "REJECTED"
	CertificateRevoked  = "REVOKED"
)

const (
	CertificateSourceTrigger = "COMPLETION_TRIGGER"
	CertificateSourceRequest = "STUDENT_REQUEST"
	CertificateSourceManual  = "MANUAL"
)

type Certificate struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	PlacementID uint `gorm:"not null;index" json:"placement_id"`
	// ActivePlacementID mirrors PlacementID while the certificate is not
	// REJECTED. The unique index keeps one live certificate per placement.
	ActivePlacementID *uint  `gorm:"uniqueIndex" json:"-"`
	StudentID         uint   `gorm:"not null;index" json:"student_id"`
	PracticeID        uint   `gorm:"index" json:"practice_id"`
	ProfessorID       *uint  `gorm:"index" json:"professor_id"`
	CertificateNumber string `gorm:"type:varchar(64);uniqueIndex;not null" json:"certificate_number"`
	Status            string `gorm:"type:varchar(15);not null;default:'PENDING';index" json:"status"`
	Source            string `gorm:"type:varchar(32)" json:"source"`

	StudentName   string     `gorm:"type:varchar(255)" json:"student_name"`
	ProfessorName string     `gorm:"type:varchar(255)" json:"professor_name"`
	PracticeName  string     `gorm:"type:varchar(255)" json:"practice_name"`
	TotalHours    float64    `gorm:"type:decimal(10,2)" json:"total_hours"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`

	PdfURL  string `gorm:"type:varchar(512)" json:"pdf_url,omitempty"`
	PdfPath string `gorm:"type:varchar(512)" json:"-"`

	ApprovedBy       *uint      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovalComments string     `gorm:"type:text" json:"approval_comments,omitempty"`
	RejectedBy       *uint      `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	RejectionReason  string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	RevokedBy        *uint      `json:"revoked_by,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevocationReason string     `gorm:"type:text" json:"revocation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	studentPlaceholderPrefix   = "Student #"
	professorPlaceholderPrefix = "Professor #"
	practicePlaceholderPrefix  = "Practice #"
)

func PlaceholderStudentName(id uint) string {
	return fmt.Sprintf("%s%d", studentPlaceholderPrefix, id)
}

func PlaceholderProfessorName(id uint) string {
	return fmt.Sprintf("%s%d", professorPlaceholderPrefix, id)
}

func PlaceholderPracticeName(id uint) string {
	if id == 0 {
		return practicePlaceholderPrefix + "unknown"
	}
	return fmt.Sprintf("%s%d", practicePlaceholderPrefix, id)
}

// IsPlaceholderName reports whether name is blank or one of the generated
// stand-ins, i.e. whether enrichment may still overwrite it.
func IsPlaceholderName(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" ||
		strings.HasPrefix(name, studentPlaceholderPrefix) ||
		strings.HasPrefix(name, professorPlaceholderPrefix) ||
		strings.HasPrefix(name, practicePlaceholderPrefix)
}

// NeedsEnrichment reports whether any descriptive field is still missing.
func (c *Certificate) NeedsEnrichment() bool {
	if IsPlaceholderName(c.StudentName) || IsPlaceholderName(c.PracticeName) {
		return true
	}
	if c.ProfessorID != nil && IsPlaceholderName(c.ProfessorName) {
		return true
	}
	return c.TotalHours <= 0 || c.StartDate == nil || c.EndDate == nil
}
