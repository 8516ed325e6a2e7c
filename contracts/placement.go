package contracts

import "time"

// PlacementSummary is served by the practice service for certificate
// enrichment and student certificate requests.
type PlacementSummary struct {
	PlacementID    uint      `json:"placementId"`
	StudentID      uint      `json:"studentId"`
	StudentName    string    `json:"studentName"`
	ProfessorID    *uint     `json:"professorId"`
	ProfessorName  string    `json:"professorName"`
	PracticeID     uint      `json:"practiceId"`
	PracticeName   string    `json:"practiceName"`
	Status         string    `json:"status"`
	ExpectedHours  int       `json:"expectedHours"`
	CompletedHours float64   `json:"completedHours"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

// Envelope mirrors utils.JSONResponse for clients decoding another
// service's answer.
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
