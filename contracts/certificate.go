// Package contracts holds the payloads exchanged between the practice
// service and the document service.
package contracts

import "time"

// GenerateCertificateRequest is POSTed to the document service when a
// placement is completed.
type GenerateCertificateRequest struct {
	PlacementID   uint       `json:"placementId" validate:"required"`
	StudentID     uint       `json:"studentId" validate:"required"`
	PracticeID    uint       `json:"practiceId"`
	StudentName   string     `json:"studentName"`
	ProfessorID   *uint      `json:"professorId"`
	ProfessorName string     `json:"professorName"`
	PracticeName  string     `json:"practiceName"`
	TotalHours    float64    `json:"totalHours" validate:"gte=0"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
}

// CertificateReceipt is the subset of the document service answer the
// practice service cares about.
type CertificateReceipt struct {
	ID                uint   `json:"id"`
	CertificateNumber string `json:"certificate_number"`
	Status            string `json:"status"`
}
