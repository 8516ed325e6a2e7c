package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	HourLogPending  = "PENDING"
	HourLogApproved = "APPROVED"
	HourLogRejected = "REJECTED"
)

// Approval is one party's sign-off on an hour log.
type Approval struct {
	By       *uint      `json:"by"`
	At       *time.Time `json:"at"`
	Comments string     `gorm:"type:text" json:"comments,omitempty"`
}

func (a Approval) Populated() bool {
	return a.By != nil
}

// MarshalJSON renders an empty slot as null.
func (a Approval) MarshalJSON() ([]byte, error) {
	if !a.Populated() {
		return []byte("null"), nil
	}
	type approval Approval
	return json.Marshal(approval(a))
}

type HourLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PlacementID uint           `gorm:"not null;index" json:"placement_id"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"`
	Date        time.Time      `gorm:"not null" json:"date"`
	Hours       float64        `gorm:"type:decimal(6,2);not null" json:"hours"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Activities  datatypes.JSON `json:"activities,omitempty"`
	EvidenceURL string         `gorm:"type:varchar(512)" json:"evidence_url,omitempty"`
	Status      string         `gorm:"type:varchar(15);not null;default:'PENDING';index" json:"status"`

	TeacherApproval Approval `gorm:"embedded;embeddedPrefix:teacher_approval_" json:"teacher_approval"`
	CompanyApproval Approval `gorm:"embedded;embeddedPrefix:company_approval_" json:"company_approval"`

	// Legacy single-reviewer fields, written on rejection only.
	ReviewedBy       *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ReviewerComments string     `gorm:"type:text" json:"reviewer_comments,omitempty"`
	RejectedByRole   string     `gorm:"type:varchar(15)" json:"rejected_by_role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Approval slots of an hour log.
const (
	SlotTeacher = "teacher"
	SlotCompany = "company"
)
