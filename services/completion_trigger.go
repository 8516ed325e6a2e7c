package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/metrics"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
)

// TriggerResult is the outcome of one certificate request. Err is of kind
// Conflict when the peer already holds a live certificate, ExternalService
// otherwise.
type TriggerResult struct {
	Receipt *contracts.CertificateReceipt
	Err     error
}

func (r TriggerResult) OK() bool {
	return r.Err == nil
}

// CompletionTrigger asks the document service for a certificate when a
// placement is completed. It never retries.
type CompletionTrigger struct {
	requester CertificateRequester
	directory Directory
	catalog   Catalog
}

func NewCompletionTrigger(requester CertificateRequester, directory Directory, catalog Catalog) *CompletionTrigger {
	return &CompletionTrigger{requester: requester, directory: directory, catalog: catalog}
}

// BuildRequest assembles the generation payload from the best data at hand.
func (t *CompletionTrigger) BuildRequest(ctx context.Context, placement *models.Placement) contracts.GenerateCertificateRequest {
	start := placement.StartDate
	end := placement.EndDate
	return contracts.GenerateCertificateRequest{
		PlacementID:   placement.ID,
		StudentID:     placement.StudentID,
		PracticeID:    placement.PracticeID,
		StudentName:   studentName(ctx, t.directory, placement.StudentID),
		ProfessorID:   placement.ProfessorID,
		ProfessorName: professorName(ctx, t.directory, placement.ProfessorID),
		PracticeName:  practiceName(ctx, t.catalog, placement),
		TotalHours:    utils.RoundHours(placement.CompletedHours),
		StartDate:     &start,
		EndDate:       &end,
	}
}

// Fire sends the request and reports the outcome. The call is detached from
// ctx cancellation; the client timeout bounds it.
func (t *CompletionTrigger) Fire(ctx context.Context, placement *models.Placement) TriggerResult {
	ctx = context.WithoutCancel(ctx)
	req := t.BuildRequest(ctx, placement)

	start := time.Now()
	receipt, err := t.requester.RequestCertificate(ctx, req)
	if err != nil {
		metrics.RecordCompletionTrigger("failed", time.Since(start))
		if kind := apperror.KindOf(err); kind != apperror.KindExternalService && kind != apperror.KindConflict {
			err = apperror.External("document service", err)
		}
		return TriggerResult{Err: err}
	}

	metrics.RecordCompletionTrigger("success", time.Since(start))
	utils.InfoLogger.WithFields(logrus.Fields{
		"placement_id":       placement.ID,
		"certificate_id":     receipt.ID,
		"certificate_number": receipt.CertificateNumber,
	}).Info("Certificate requested for completed placement")
	return TriggerResult{Receipt: receipt}
}

var errNoTrigger = errors.New("certificate requests are not configured")
