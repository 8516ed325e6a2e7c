package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/services"
	"github.com/yeremiapane/practice-app/utils"
)

type HourLogController struct {
	Ledger *services.HourLedger
}

func NewHourLogController(ledger *services.HourLedger) *HourLogController {
	return &HourLogController{Ledger: ledger}
}

// CreateHourLog -> student logs hours on their placement
func (hc *HourLogController) CreateHourLog(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req CreateHourLogRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	log, err := hc.Ledger.Submit(c.Request.Context(), actor, services.SubmitHourLogInput{
		PlacementID: req.PlacementID,
		Date:        date,
		Hours:       req.Hours,
		Description: req.Description,
		Activities:  req.Activities,
		EvidenceURL: req.EvidenceURL,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Hour log submitted", log)
}

// ListHourLogs -> logs visible to the caller, optionally for one placement
func (hc *HourLogController) ListHourLogs(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var placementID *uint
	if raw := c.Query("placementId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondServiceError(c, apperror.Validation("invalid placementId"))
			return
		}
		v := uint(id)
		placementID = &v
	}

	logs, err := hc.Ledger.List(c.Request.Context(), actor, placementID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of hour logs", logs)
}

func (hc *HourLogController) GetHourLog(c *gin.Context) {
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
	log, err := hc.Ledger.Get(c.Request.Context(), id, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Hour log detail", log)
}

// UpdateHourLog -> author edits a PENDING log
func (hc *HourLogController) UpdateHourLog(c *gin.Context) {
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
	var req UpdateHourLogRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	log, err := hc.Ledger.Update(c.Request.Context(), id, actor, services.UpdateHourLogInput{
		Date:        date,
		Hours:       req.Hours,
		Description: req.Description,
		Activities:  req.Activities,
		EvidenceURL: req.EvidenceURL,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Hour log updated", log)
}

// ReviewHourLog -> professor or company records a decision
func (hc *HourLogController) ReviewHourLog(c *gin.Context) {
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
	var req ReviewHourLogRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	decision := services.DecisionApprove
	if req.Status == models.HourLogRejected {
		decision = services.DecisionReject
	}
	log, err := hc.Ledger.Review(c.Request.Context(), id, actor, decision, req.ReviewerComments)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Hour log reviewed", log)
}

func (hc *HourLogController) DeleteHourLog(c *gin.Context) {
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
	if err := hc.Ledger.Delete(c.Request.Context(), id, actor); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Hour log deleted", gin.H{"id": id})
}

// GetStats -> progress of one placement
func (hc *HourLogController) GetStats(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	placementID, err := parseID(c, "placementId")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	stats, err := hc.Ledger.Stats(c.Request.Context(), placementID, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Hour log stats", stats)
}
