package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/middlewares"
	"github.com/yeremiapane/practice-app/services"
)

var validate = validator.New()

type CreateHourLogRequest struct {
	PlacementID uint     `json:"placementId" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	Hours       float64  `json:"hours" validate:"required"`
	Description string   `json:"description" validate:"required,max=5000"`
	Activities  []string `json:"activities" validate:"omitempty,max=50,dive,required,max=200"`
	EvidenceURL string   `json:"evidenceUrl" validate:"omitempty,url,max=512"`
}

type UpdateHourLogRequest struct {
	Date        *string   `json:"date"`
	Hours       *float64  `json:"hours"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Activities  *[]string `json:"activities" validate:"omitempty,max=50,dive,required,max=200"`
	EvidenceURL *string   `json:"evidenceUrl" validate:"omitempty,url,max=512"`
}

type ReviewHourLogRequest struct {
	Status           string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	ReviewerComments string `json:"reviewerComments" validate:"max=2000"`
}

type CreatePlacementRequest struct {
	StudentID           uint   `json:"studentId" validate:"required"`
	PracticeID          uint   `json:"practiceId" validate:"required"`
	CompanySupervisorID *uint  `json:"companySupervisorId"`
	StartDate           string `json:"startDate" validate:"required"`
	EndDate             string `json:"endDate" validate:"required"`
	ExpectedHours       int    `json:"expectedHours" validate:"gte=0"`
}

type UpdatePlacementRequest struct {
	Status              *string  `json:"status"`
	CompletedHours      *float64 `json:"completedHours"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	ExpectedHours       *int     `json:"expectedHours"`
	CompanySupervisorID *uint    `json:"companySupervisorId"`
	ProfessorID         *uint    `json:"professorId"`
}

type AssignProfessorRequest struct {
	ProfessorID uint `json:"professorId" validate:"required"`
}

type AssignmentActionRequest struct {
	Action string `json:"action" validate:"required"`
}

type CertificateStudentRequest struct {
	PlacementID uint `json:"placementId" validate:"required"`
}

type ApproveCertificateRequest struct {
	Comments string `json:"comments" validate:"max=2000"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// bindJSON decodes the body into req and runs its validate tags.
func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Validation("invalid request body: %v", err)
	}
	return validateStruct(req)
}

func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation("%s must be a date (YYYY-MM-DD)", field)
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid %s", name)
	}
	return uint(id), nil
}

// currentActor reads the identity AuthMiddleware stored on the context.
func currentActor(c *gin.Context) (services.Actor, error) {
	rawID, ok := c.Get(middlewares.ContextUserID)
	if !ok {
		return services.Actor{}, apperror.Unauthorized("unauthorized")
	}
	rawRole, _ := c.Get(middlewares.ContextRole)
	id, _ := rawID.(uint)
	role, _ := rawRole.(string)
	if id == 0 || role == "" {
		return services.Actor{}, apperror.Unauthorized("unauthorized")
	}
	return services.Actor{ID: id, Role: role}, nil
}
