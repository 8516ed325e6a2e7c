package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/metrics"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
)

const (
	AssignmentAccept  = "accept"
	AssignmentDecline = "decline"
)

// statusTransitions lists the legal status moves. COMPLETED and TERMINATED
// have none.
var statusTransitions = map[string][]string{
	models.PlacementActive: {models.PlacementCompleted, models.PlacementTerminated, models.PlacementOnHold},
	models.PlacementOnHold: {models.PlacementActive},
}

func canTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func knownStatus(status string) bool {
	switch status {
	case models.PlacementActive, models.PlacementCompleted, models.PlacementTerminated, models.PlacementOnHold:
		return true
	}
	return false
}

type CreatePlacementInput struct {
	StudentID           uint
	PracticeID          uint
	CompanySupervisorID *uint
	StartDate           time.Time
	EndDate             time.Time
	ExpectedHours       int
}

// PlacementPatch is a partial update; nil fields are left alone.
type PlacementPatch struct {
	Status              *string
	CompletedHours      *float64
	StartDate           *time.Time
	EndDate             *time.Time
	ExpectedHours       *int
	CompanySupervisorID *uint
	// ProfessorID invites a professor; the company supervisor may set it too.
	ProfessorID         *uint
}

func (p PlacementPatch) touchesStaffFields() bool {
	return p.Status != nil || p.StartDate != nil || p.EndDate != nil ||
		p.ExpectedHours != nil || p.CompanySupervisorID != nil
}

// PlacementLifecycle owns the placement status machine and the professor
// assignment negotiation.
type PlacementLifecycle struct {
	placements   PlacementStore
	totals       HourTotals
	directory    Directory
	catalog      Catalog
	trigger      CompletionDispatcher
	autoComplete bool
}

func NewPlacementLifecycle(placements PlacementStore, totals HourTotals, directory Directory, catalog Catalog, trigger CompletionDispatcher, autoComplete bool) *PlacementLifecycle {
	return &PlacementLifecycle{
		placements:   placements,
		totals:       totals,
		directory:    directory,
		catalog:      catalog,
		trigger:      trigger,
		autoComplete: autoComplete,
	}
}

func (p *PlacementLifecycle) Create(ctx context.Context, actor Actor, input CreatePlacementInput) (*models.Placement, error) {
	if !actor.IsStaff() {
		return nil, apperror.Forbidden("only coordinators and admins can create placements")
	}
	if input.ExpectedHours < 0 {
		return nil, apperror.Validation("expectedHours cannot be negative")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, apperror.Validation("startDate and endDate are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, apperror.Validation("endDate cannot be before startDate")
	}

	student, err := p.directory.FindUser(ctx, input.StudentID)
	if err != nil || student.Role != models.RoleStudent {
		return nil, apperror.Validation("user %d is not a known student", input.StudentID)
	}
	if _, err := p.catalog.FindPractice(ctx, input.PracticeID); err != nil {
		return nil, apperror.Validation("practice %d does not exist", input.PracticeID)
	}

	placement := &models.Placement{
		StudentID:           input.StudentID,
		PracticeID:          input.PracticeID,
		CompanySupervisorID: input.CompanySupervisorID,
		AssignmentStatus:    models.AssignmentPending,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		ExpectedHours:       input.ExpectedHours,
		Status:              models.PlacementActive,
	}
	if err := p.placements.Create(ctx, placement); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Placement %d created for student %d by %s %d", placement.ID, placement.StudentID, actor.Role, actor.ID)
	return p.placements.FindByID(ctx, placement.ID)
}

func (p *PlacementLifecycle) Get(ctx context.Context, id uint, actor Actor) (*models.Placement, error) {
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewPlacement(actor, placement) {
		return nil, apperror.Forbidden("placement %d is not visible to you", id)
	}
	return placement, nil
}

func (p *PlacementLifecycle) Update(ctx context.Context, id uint, actor Actor, patch PlacementPatch) (*models.Placement, error) {
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.touchesStaffFields() && !actor.IsStaff() {
		return nil, apperror.Forbidden("only coordinators and admins can change status, dates or targets")
	}
	if patch.CompletedHours != nil {
		allowed := actor.IsStaff() || (actor.Role == models.RoleProfessor && placement.AssignedTo(actor.ID))
		if !allowed {
			return nil, apperror.Forbidden("only the assigned professor, coordinators and admins can set completedHours")
		}
	}

	fields := map[string]interface{}{}
	if patch.CompletedHours != nil {
		if *patch.CompletedHours < 0 {
			return nil, apperror.Validation("completedHours cannot be negative")
		}
		fields["completed_hours"] = utils.RoundHours(*patch.CompletedHours)
	}
	if patch.ExpectedHours != nil {
		if *patch.ExpectedHours < 0 {
			return nil, apperror.Validation("expectedHours cannot be negative")
		}
		fields["expected_hours"] = *patch.ExpectedHours
	}
	start, end := placement.StartDate, placement.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
		fields["start_date"] = start
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
		fields["end_date"] = end
	}
	if end.Before(start) {
		return nil, apperror.Validation("endDate cannot be before startDate")
	}
	if patch.CompanySupervisorID != nil {
		fields["company_supervisor_id"] = *patch.CompanySupervisorID
	}

	var target string
	if patch.Status != nil {
		target = strings.ToUpper(strings.TrimSpace(*patch.Status))
		if !knownStatus(target) {
			return nil, apperror.Validation("unknown placement status %q", *patch.Status)
		}
		if target != placement.Status && !canTransition(placement.Status, target) {
			return nil, apperror.InvalidState("placement %d cannot move from %s to %s", placement.ID, placement.Status, target)
		}
	}

	if patch.ProfessorID != nil {
		if err := p.checkAssignment(ctx, placement, actor, *patch.ProfessorID); err != nil {
			return nil, err
		}
	}

	// Every check above runs before the first write.
	if err := p.placements.UpdateFields(ctx, placement.ID, fields); err != nil {
		return nil, err
	}
	if patch.ProfessorID != nil {
		if err := p.invite(ctx, placement.ID, *patch.ProfessorID); err != nil {
			return nil, err
		}
	}

	if target != "" && target != placement.Status {
		if err := p.transition(ctx, placement.ID, placement.Status, target); err != nil {
			return nil, err
		}
	}
	return p.placements.FindByID(ctx, placement.ID)
}

// transition performs one guarded status write. Only the caller whose write
// lands fires the completion trigger; a concurrent identical move is a no-op.
func (p *PlacementLifecycle) transition(ctx context.Context, id uint, from, to string) error {
	won, err := p.placements.CompareAndSetStatus(ctx, id, from, to, time.Now())
	if err != nil {
		return err
	}
	if !won {
		current, err := p.placements.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == to {
			return nil
		}
		return apperror.InvalidState("placement %d changed to %s concurrently", id, current.Status)
	}

	metrics.IncrementPlacementTransition(from, to)
	utils.InfoLogger.WithFields(logrus.Fields{
		"placement_id": id,
		"from":         from,
		"to":           to,
	}).Info("Placement status changed")

	if to == models.PlacementCompleted {
		p.dispatchCompletion(ctx, id)
	}
	return nil
}

// dispatchCompletion fires the trigger and swallows its failure.
func (p *PlacementLifecycle) dispatchCompletion(ctx context.Context, id uint) {
	if p.trigger == nil {
		return
	}
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		utils.ErrorLogger.Printf("Completion trigger skipped for placement %d: %v", id, err)
		return
	}
	result := p.trigger.Fire(ctx, placement)
	if !result.OK() {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"placement_id": id,
		}).Warnf("Certificate request failed, placement stays COMPLETED: %v", result.Err)
	}
}

func (p *PlacementLifecycle) AssignProfessor(ctx context.Context, id uint, actor Actor, professorID uint) (*models.Placement, error) {
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.checkAssignment(ctx, placement, actor, professorID); err != nil {
		return nil, err
	}
	if err := p.invite(ctx, placement.ID, professorID); err != nil {
		return nil, err
	}
	return p.placements.FindByID(ctx, placement.ID)
}

// checkAssignment validates an invitation without writing anything.
func (p *PlacementLifecycle) checkAssignment(ctx context.Context, placement *models.Placement, actor Actor, professorID uint) error {
	allowed := actor.IsStaff() || (actor.Role == models.RoleCompany && placement.SupervisedBy(actor.ID))
	if !allowed {
		return apperror.Forbidden("only the placement's company, coordinators and admins can assign a professor")
	}
	if placement.IsTerminal() {
		return apperror.InvalidState("placement %d is %s", placement.ID, placement.Status)
	}
	if placement.AssignmentStatus == models.AssignmentAccepted {
		return apperror.InvalidState("placement %d already has an accepted professor", placement.ID)
	}

	professor, err := p.directory.FindUser(ctx, professorID)
	if err != nil || professor.Role != models.RoleProfessor {
		return apperror.Validation("user %d is not a known professor", professorID)
	}
	return nil
}

func (p *PlacementLifecycle) invite(ctx context.Context, id, professorID uint) error {
	from := []string{models.AssignmentPending, models.AssignmentDeclined, models.AssignmentInvited}
	ok, err := p.placements.CompareAndSetAssignment(ctx, id, from, nil, models.AssignmentInvited, &professorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.InvalidState("placement %d assignment changed concurrently", id)
	}
	utils.InfoLogger.Printf("Professor %d invited to placement %d", professorID, id)
	return nil
}

func (p *PlacementLifecycle) RespondAssignment(ctx context.Context, id uint, actor Actor, action string) (*models.Placement, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != AssignmentAccept && action != AssignmentDecline {
		return nil, apperror.Validation("action must be %q or %q", AssignmentAccept, AssignmentDecline)
	}
	if actor.Role != models.RoleProfessor {
		return nil, apperror.Forbidden("only the invited professor can respond")
	}

	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if placement.AssignmentStatus != models.AssignmentInvited {
		return nil, apperror.InvalidState("placement %d has no open invitation (%s)", placement.ID, placement.AssignmentStatus)
	}
	if !placement.AssignedTo(actor.ID) {
		return nil, apperror.Forbidden("professor %d was not invited to placement %d", actor.ID, placement.ID)
	}

	to, professorID := models.AssignmentAccepted, &actor.ID
	if action == AssignmentDecline {
		to, professorID = models.AssignmentDeclined, nil
	}
	ok, err := p.placements.CompareAndSetAssignment(ctx, placement.ID, []string{models.AssignmentInvited}, &actor.ID, to, professorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("placement %d invitation is no longer open", placement.ID)
	}

	utils.InfoLogger.Printf("Professor %d answered %s for placement %d", actor.ID, action, placement.ID)
	return p.placements.FindByID(ctx, placement.ID)
}

// HoursRecomputed implements HoursObserver. It completes the placement only
// when auto completion is configured.
func (p *PlacementLifecycle) HoursRecomputed(ctx context.Context, placement *models.Placement) {
	if placement.ExpectedHours <= 0 || placement.CompletedHours < float64(placement.ExpectedHours) {
		return
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"placement_id":    placement.ID,
		"completed_hours": placement.CompletedHours,
		"expected_hours":  placement.ExpectedHours,
	}).Info("Placement reached its expected hours")

	if !p.autoComplete || placement.Status != models.PlacementActive {
		return
	}
	if err := p.transition(ctx, placement.ID, models.PlacementActive, models.PlacementCompleted); err != nil {
		utils.ErrorLogger.Printf("Auto completion of placement %d failed: %v", placement.ID, err)
	}
}

// Summary serves the document service's placement read.
func (p *PlacementLifecycle) Summary(ctx context.Context, id uint) (*contracts.PlacementSummary, error) {
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &contracts.PlacementSummary{
		PlacementID:    placement.ID,
		StudentID:      placement.StudentID,
		StudentName:    studentName(ctx, p.directory, placement.StudentID),
		ProfessorID:    placement.ProfessorID,
		ProfessorName:  professorName(ctx, p.directory, placement.ProfessorID),
		PracticeID:     placement.PracticeID,
		PracticeName:   practiceName(ctx, p.catalog, placement),
		Status:         placement.Status,
		ExpectedHours:  placement.ExpectedHours,
		CompletedHours: placement.CompletedHours,
		StartDate:      placement.StartDate,
		EndDate:        placement.EndDate,
	}, nil
}

// RequestCertificate re-sends the completion request of a COMPLETED placement.
// Unlike the automatic trigger it reports failures to the caller.
func (p *PlacementLifecycle) RequestCertificate(ctx context.Context, id uint, actor Actor) (*contracts.CertificateReceipt, error) {
	placement, err := p.placements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := actor.IsStaff() || (actor.Role == models.RoleStudent && placement.StudentID == actor.ID)
	if !allowed {
		return nil, apperror.Forbidden("only the placement's student, coordinators and admins can request a certificate")
	}
	if placement.Status != models.PlacementCompleted {
		return nil, apperror.InvalidState("placement %d is %s, not COMPLETED", placement.ID, placement.Status)
	}
	if p.trigger == nil {
		return nil, apperror.External("document service", errNoTrigger)
	}

	result := p.trigger.Fire(ctx, placement)
	if !result.OK() {
		return nil, result.Err
	}
	return result.Receipt, nil
}

// ReconcileCompletedHours recomputes completedHours of every open placement
// from its APPROVED logs and returns how many were corrected.
func (p *PlacementLifecycle) ReconcileCompletedHours(ctx context.Context) (int, error) {
	ids, err := p.placements.OpenIDs(ctx)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}
		placement, err := p.placements.FindByID(ctx, id)
		if err != nil {
			utils.ErrorLogger.Printf("Reconcile: placement %d: %v", id, err)
			continue
		}
		total, err := p.totals.SumHours(ctx, id, []string{models.HourLogApproved}, 0)
		if err != nil {
			utils.ErrorLogger.Printf("Reconcile: sum hours of placement %d: %v", id, err)
			continue
		}
		total = utils.RoundHours(total)
		if total != utils.RoundHours(placement.CompletedHours) {
			if err := p.placements.SetCompletedHours(ctx, id, total); err != nil {
				utils.ErrorLogger.Printf("Reconcile: write placement %d: %v", id, err)
				continue
			}
			utils.InfoLogger.Printf("Reconcile: placement %d completed hours %s -> %s",
				id, utils.FormatHours(placement.CompletedHours), utils.FormatHours(total))
			corrected++
		}
		placement.CompletedHours = total
		p.HoursRecomputed(ctx, placement)
	}
	return corrected, nil
}
