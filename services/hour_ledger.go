package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/metrics"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/utils"
	"gorm.io/datatypes"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

const maxHoursPerLog = 24

var countedStatuses = []string{models.HourLogPending, models.HourLogApproved}

type SubmitHourLogInput struct {
	PlacementID uint
	Date        time.Time
	Hours       float64
	Description string
	Activities  []string
	EvidenceURL string
}

// UpdateHourLogInput carries the fields a student may change; nil means
// unchanged.
type UpdateHourLogInput struct {
	Date        *time.Time
	Hours       *float64
	Description *string
	Activities  *[]string
	EvidenceURL *string
}

type HourStats struct {
	PlacementID    uint    `json:"placementId"`
	ExpectedHours  int     `json:"expectedHours"`
	CompletedHours float64 `json:"completedHours"`
	ApprovedHours  float64 `json:"approvedHours"`
	PendingHours   float64 `json:"pendingHours"`
	PendingLogs    int64   `json:"pendingLogs"`
	ApprovedLogs   int64   `json:"approvedLogs"`
	RejectedLogs   int64   `json:"rejectedLogs"`
	Progress       float64 `json:"progress"`
}

// HourLedger keeps hour logs and applies the dual-approval rule. Completed
// hours of a placement are always recomputed from every APPROVED log.
type HourLedger struct {
	logs       HourLogStore
	placements PlacementStore
	observer   HoursObserver
}

func NewHourLedger(logs HourLogStore, placements PlacementStore, observer HoursObserver) *HourLedger {
	return &HourLedger{logs: logs, placements: placements, observer: observer}
}

func validatePositiveHours(hours float64) error {
	if hours <= 0 {
		return apperror.Validation("hours must be greater than 0 and at most %d", maxHoursPerLog)
	}
	return nil
}

// validateDailyLimit runs after the capacity check, so an entry that cannot
// fit the placement at all reports CapacityExceeded first.
func validateDailyLimit(hours float64) error {
	if hours > maxHoursPerLog {
		return apperror.Validation("hours must be greater than 0 and at most %d", maxHoursPerLog)
	}
	return nil
}

func encodeActivities(activities []string) (datatypes.JSON, error) {
	if activities == nil {
		return nil, nil
	}
	raw, err := json.Marshal(activities)
	if err != nil {
		return nil, apperror.Validation("invalid activities")
	}
	return datatypes.JSON(raw), nil
}

// checkCapacity fails when the hours already claimed on the placement plus
// extra would pass its expected hours. REJECTED logs do not count.
func (l *HourLedger) checkCapacity(ctx context.Context, placement *models.Placement, extra float64, excludeID uint) error {
	claimed, err := l.logs.SumHours(ctx, placement.ID, countedStatuses, excludeID)
	if err != nil {
		return err
	}
	if utils.RoundHours(claimed+extra) > float64(placement.ExpectedHours) {
		return apperror.CapacityExceeded("placement %d has %s of %d expected hours logged; %s more would exceed it",
			placement.ID, utils.FormatHours(claimed), placement.ExpectedHours, utils.FormatHours(extra))
	}
	return nil
}

func (l *HourLedger) Submit(ctx context.Context, actor Actor, input SubmitHourLogInput) (*models.HourLog, error) {
	if err := validatePositiveHours(input.Hours); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperror.Validation("description is required")
	}
	if input.Date.IsZero() {
		return nil, apperror.Validation("date is required")
	}
	activities, err := encodeActivities(input.Activities)
	if err != nil {
		return nil, err
	}

	placement, err := l.placements.FindByID(ctx, input.PlacementID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent || placement.StudentID != actor.ID {
		return nil, apperror.Forbidden("only the placement's student can log hours")
	}
	if placement.Status != models.PlacementActive {
		return nil, apperror.InvalidState("placement %d is %s; hours can only be logged while ACTIVE", placement.ID, placement.Status)
	}
	if err := l.checkCapacity(ctx, placement, input.Hours, 0); err != nil {
		return nil, err
	}
	if err := validateDailyLimit(input.Hours); err != nil {
		return nil, err
	}

	log := &models.HourLog{
		PlacementID: placement.ID,
		StudentID:   actor.ID,
		Date:        input.Date,
		Hours:       utils.RoundHours(input.Hours),
		Description: description,
		Activities:  activities,
		EvidenceURL: strings.TrimSpace(input.EvidenceURL),
		Status:      models.HourLogPending,
	}
	if err := l.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"hour_log_id":  log.ID,
		"placement_id": placement.ID,
		"hours":        log.Hours,
	}).Info("Hour log submitted")
	return log, nil
}

// reviewSlot maps the reviewer to the approval slot they sign.
func reviewSlot(actor Actor, placement *models.Placement) (string, error) {
	switch actor.Role {
	case models.RoleProfessor:
		if !placement.AssignedTo(actor.ID) {
			return "", apperror.Forbidden("professor %d is not assigned to placement %d", actor.ID, placement.ID)
		}
		return models.SlotTeacher, nil
	case models.RoleCompany:
		if !placement.SupervisedBy(actor.ID) {
			return "", apperror.Forbidden("company user %d does not supervise placement %d", actor.ID, placement.ID)
		}
		return models.SlotCompany, nil
	default:
		return "", apperror.Forbidden("role %q cannot review hour logs", actor.Role)
	}
}

func alreadyReviewed(log *models.HourLog) error {
	return apperror.InvalidState("hour log %d has already been reviewed (%s)", log.ID, log.Status)
}

// Review records one party's decision. Approval needs both slots; a single
// rejection is final.
func (l *HourLedger) Review(ctx context.Context, logID uint, actor Actor, decision, comments string) (*models.HourLog, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperror.Validation("decision must be %q or %q", DecisionApprove, DecisionReject)
	}

	log, err := l.logs.FindByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.Status != models.HourLogPending {
		return nil, alreadyReviewed(log)
	}
	placement, err := l.placements.FindByID(ctx, log.PlacementID)
	if err != nil {
		return nil, err
	}
	slot, err := reviewSlot(actor, placement)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	comments = strings.TrimSpace(comments)
	if decision == DecisionReject {
		ok, err := l.logs.Reject(ctx, log.ID, actor.ID, slot, comments, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, alreadyReviewed(log)
		}
		metrics.IncrementHourLogReview(slot, decision)
		utils.InfoLogger.WithFields(logrus.Fields{
			"hour_log_id": log.ID,
			"reviewer_id": actor.ID,
			"slot":        slot,
		}).Info("Hour log rejected")
		return l.logs.FindByID(ctx, log.ID)
	}

	reviewer := actor.ID
	ok, err := l.logs.StampApproval(ctx, log.ID, slot, models.Approval{By: &reviewer, At: &now, Comments: comments})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, alreadyReviewed(log)
	}
	metrics.IncrementHourLogReview(slot, decision)

	promoted, err := l.logs.PromoteIfComplete(ctx, log.ID)
	if err != nil {
		return nil, err
	}
	if promoted {
		metrics.HourLogApprovedCount.Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"hour_log_id":  log.ID,
			"placement_id": placement.ID,
		}).Info("Hour log approved by both supervisors")
		if err := l.recompute(ctx, placement); err != nil {
			return nil, err
		}
	}
	return l.logs.FindByID(ctx, log.ID)
}

// recompute writes the full APPROVED sum to the placement and hands the
// result to the observer.
func (l *HourLedger) recompute(ctx context.Context, placement *models.Placement) error {
	total, err := l.logs.SumHours(ctx, placement.ID, []string{models.HourLogApproved}, 0)
	if err != nil {
		return err
	}
	total = utils.RoundHours(total)
	if err := l.placements.SetCompletedHours(ctx, placement.ID, total); err != nil {
		return err
	}
	placement.CompletedHours = total
	if l.observer != nil {
		l.observer.HoursRecomputed(ctx, placement)
	}
	return nil
}

// pendingOwnedBy loads a log its author may still change.
func (l *HourLedger) pendingOwnedBy(ctx context.Context, logID uint, actor Actor) (*models.HourLog, error) {
	log, err := l.logs.FindByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.StudentID != actor.ID || actor.Role != models.RoleStudent {
		return nil, apperror.Forbidden("only the author can change hour log %d", log.ID)
	}
	if log.Status != models.HourLogPending {
		return nil, apperror.InvalidState("hour log %d is %s and can no longer be changed", log.ID, log.Status)
	}
	return log, nil
}

func (l *HourLedger) Update(ctx context.Context, logID uint, actor Actor, input UpdateHourLogInput) (*models.HourLog, error) {
	log, err := l.pendingOwnedBy(ctx, logID, actor)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, apperror.Validation("date is required")
		}
		fields["date"] = *input.Date
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperror.Validation("description is required")
		}
		fields["description"] = description
	}
	if input.Activities != nil {
		activities, err := encodeActivities(*input.Activities)
		if err != nil {
			return nil, err
		}
		fields["activities"] = activities
	}
	if input.EvidenceURL != nil {
		fields["evidence_url"] = strings.TrimSpace(*input.EvidenceURL)
	}
	if input.Hours != nil {
		if err := validatePositiveHours(*input.Hours); err != nil {
			return nil, err
		}
		placement, err := l.placements.FindByID(ctx, log.PlacementID)
		if err != nil {
			return nil, err
		}
		if err := l.checkCapacity(ctx, placement, *input.Hours, log.ID); err != nil {
			return nil, err
		}
		if err := validateDailyLimit(*input.Hours); err != nil {
			return nil, err
		}
		fields["hours"] = utils.RoundHours(*input.Hours)
	}

	if len(fields) == 0 {
		return log, nil
	}
	ok, err := l.logs.UpdatePending(ctx, log.ID, actor.ID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("hour log %d is no longer pending", log.ID)
	}
	return l.logs.FindByID(ctx, log.ID)
}

func (l *HourLedger) Delete(ctx context.Context, logID uint, actor Actor) error {
	log, err := l.pendingOwnedBy(ctx, logID, actor)
	if err != nil {
		return err
	}
	ok, err := l.logs.DeletePending(ctx, log.ID, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.InvalidState("hour log %d is no longer pending", log.ID)
	}
	utils.InfoLogger.Printf("Hour log %d deleted by student %d", log.ID, actor.ID)
	return nil
}

func (l *HourLedger) Get(ctx context.Context, logID uint, actor Actor) (*models.HourLog, error) {
	log, err := l.logs.FindByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	placement, err := l.placements.FindByID(ctx, log.PlacementID)
	if err != nil {
		return nil, err
	}
	if !canViewPlacement(actor, placement) {
		return nil, apperror.Forbidden("hour log %d is not visible to you", log.ID)
	}
	return log, nil
}

// List returns the logs the actor may see, optionally for one placement.
func (l *HourLedger) List(ctx context.Context, actor Actor, placementID *uint) ([]models.HourLog, error) {
	scope, restrict, err := placementScope(actor)
	if err != nil {
		return nil, err
	}
	filter := repository.HourLogFilter{PlacementID: placementID, Restrict: restrict}
	if restrict {
		ids, err := l.placements.VisibleIDs(ctx, scope)
		if err != nil {
			return nil, err
		}
		filter.PlacementIDs = ids
	}
	return l.logs.List(ctx, filter)
}

func (l *HourLedger) Stats(ctx context.Context, placementID uint, actor Actor) (*HourStats, error) {
	placement, err := l.placements.FindByID(ctx, placementID)
	if err != nil {
		return nil, err
	}
	if !canViewPlacement(actor, placement) {
		return nil, apperror.Forbidden("placement %d is not visible to you", placement.ID)
	}

	approved, err := l.logs.SumHours(ctx, placement.ID, []string{models.HourLogApproved}, 0)
	if err != nil {
		return nil, err
	}
	pending, err := l.logs.SumHours(ctx, placement.ID, []string{models.HourLogPending}, 0)
	if err != nil {
		return nil, err
	}
	counts, err := l.logs.CountByStatus(ctx, placement.ID)
	if err != nil {
		return nil, fmt.Errorf("stats of placement %d: %w", placement.ID, err)
	}

	stats := &HourStats{
		PlacementID:    placement.ID,
		ExpectedHours:  placement.ExpectedHours,
		CompletedHours: placement.CompletedHours,
		ApprovedHours:  utils.RoundHours(approved),
		PendingHours:   utils.RoundHours(pending),
	}
	for _, c := range counts {
		switch c.Status {
		case models.HourLogPending:
			stats.PendingLogs = c.Count
		case models.HourLogApproved:
			stats.ApprovedLogs = c.Count
		case models.HourLogRejected:
			stats.RejectedLogs = c.Count
		}
	}
	if placement.ExpectedHours > 0 {
		progress := stats.ApprovedHours / float64(placement.ExpectedHours) * 100
		if progress > 100 {
			progress = 100
		}
		stats.Progress = utils.RoundHours(progress)
	}
	return stats, nil
}
