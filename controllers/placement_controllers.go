package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/services"
	"github.com/yeremiapane/practice-app/utils"
)

type PlacementController struct {
	Lifecycle *services.PlacementLifecycle
}

func NewPlacementController(lifecycle *services.PlacementLifecycle) *PlacementController {
	return &PlacementController{Lifecycle: lifecycle}
}

// CreatePlacement -> coordinator opens a placement for an accepted student
func (pc *PlacementController) CreatePlacement(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req CreatePlacementRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	placement, err := pc.Lifecycle.Create(c.Request.Context(), actor, services.CreatePlacementInput{
		StudentID:           req.StudentID,
		PracticeID:          req.PracticeID,
		CompanySupervisorID: req.CompanySupervisorID,
		StartDate:           start,
		EndDate:             end,
		ExpectedHours:       req.ExpectedHours,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Placement created", placement)
}

func (pc *PlacementController) GetPlacement(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	placement, err := pc.Lifecycle.Get(c.Request.Context(), id, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Placement detail", placement)
}

// UpdatePlacement -> role-gated partial update; professorId goes through the
// invitation flow
func (pc *PlacementController) UpdatePlacement(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req UpdatePlacementRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	start, err := parseOptionalDate("startDate", req.StartDate)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	end, err := parseOptionalDate("endDate", req.EndDate)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	placement, err := pc.Lifecycle.Update(c.Request.Context(), id, actor, services.PlacementPatch{
		Status:              req.Status,
		CompletedHours:      req.CompletedHours,
		StartDate:           start,
		EndDate:             end,
		ExpectedHours:       req.ExpectedHours,
		CompanySupervisorID: req.CompanySupervisorID,
		ProfessorID:         req.ProfessorID,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Placement updated", placement)
}

func (pc *PlacementController) AssignProfessor(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req AssignProfessorRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	placement, err := pc.Lifecycle.AssignProfessor(c.Request.Context(), id, actor, req.ProfessorID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Professor invited", placement)
}

// RespondAssignment -> invited professor accepts or declines
func (pc *PlacementController) RespondAssignment(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req AssignmentActionRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	placement, err := pc.Lifecycle.RespondAssignment(c.Request.Context(), id, actor, req.Action)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Assignment updated", placement)
}

// RequestCertificate -> manual re-request after a failed completion trigger
func (pc *PlacementController) RequestCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	receipt, err := pc.Lifecycle.RequestCertificate(c.Request.Context(), id, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusAccepted, "Certificate requested", receipt)
}

// GetSummary -> placement data for the document service
func (pc *PlacementController) GetSummary(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	summary, err := pc.Lifecycle.Summary(c.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Placement summary", summary)
}
