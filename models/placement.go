package models

import "time"

const (
	PlacementActive     = "ACTIVE"
	PlacementCompleted  = "COMPLETED"
	PlacementTerminated = "TERMINATED"
	PlacementOnHold     = "ON_HOLD"
)

const (
	AssignmentPending  = "PENDING"
	AssignmentInvited  = "INVITED"
	AssignmentAccepted = "ACCEPTED"
	AssignmentDeclined = "DECLINED"
)

type Placement struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	StudentID           uint       `gorm:"not null;index" json:"student_id"`
	PracticeID          uint       `gorm:"not null;index" json:"practice_id"`
	Practice            *Practice  `gorm:"foreignKey:PracticeID" json:"practice,omitempty"`
	CompanySupervisorID *uint      `gorm:"index" json:"company_supervisor_id"`
	ProfessorID         *uint      `gorm:"index" json:"professor_id"`
	AssignmentStatus    string     `gorm:"type:varchar(15);not null;default:'PENDING'" json:"assignment_status"`
	StartDate           time.Time  `gorm:"not null" json:"start_date"`
	EndDate             time.Time  `gorm:"not null" json:"end_date"`
	ExpectedHours       int        `gorm:"not null;default:0" json:"expected_hours"`
	CompletedHours      float64    `gorm:"type:decimal(10,2);not null;default:0" json:"completed_hours"`
	Status              string     `gorm:"type:varchar(15);not null;default:'ACTIVE';index" json:"status"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsTerminal reports whether no further status transition is allowed.
func (p *Placement) IsTerminal() bool {
	return p.Status == PlacementCompleted || p.Status == PlacementTerminated
}

// SupervisedBy reports whether userID is the company side of the placement:
// its company supervisor or the owner of its practice.
func (p *Placement) SupervisedBy(userID uint) bool {
	if p.CompanySupervisorID != nil && *p.CompanySupervisorID == userID {
		return true
	}
	return p.Practice != nil && p.Practice.CompanyID == userID
}

func (p *Placement) AssignedTo(professorID uint) bool {
	return p.ProfessorID != nil && *p.ProfessorID == professorID
}
