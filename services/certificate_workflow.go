package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/metrics"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/utils"
)

const enrichmentBatchSize = 200

// NewCertificateNumber formats CERT/<yyyymmdd>/<placement>/<random>.
func NewCertificateNumber(at time.Time, placementID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CERT/%s/%06d/%s", at.Format("20060102"), placementID, suffix)
}

// DownloadFileName turns a certificate number into a safe file name.
func DownloadFileName(cert *models.Certificate) string {
	return strings.ReplaceAll(cert.CertificateNumber, "/", "-") + ".pdf"
}

// CertificateWorkflow runs the certificate state machine of the document
// service.
type CertificateWorkflow struct {
	certs         CertificateStore
	summaries     SummaryFetcher
	renderer      CertificateRenderer
	enrichTimeout time.Duration
}

func NewCertificateWorkflow(certs CertificateStore, summaries SummaryFetcher, renderer CertificateRenderer, enrichTimeout time.Duration) *CertificateWorkflow {
	return &CertificateWorkflow{
		certs:         certs,
		summaries:     summaries,
		renderer:      renderer,
		enrichTimeout: enrichTimeout,
	}
}

// Generate creates a PENDING certificate from req. It fails with Conflict
// while the placement has a PENDING, APPROVED or REVOKED certificate.
func (w *CertificateWorkflow) Generate(ctx context.Context, req contracts.GenerateCertificateRequest, source string) (*models.Certificate, error) {
	if req.PlacementID == 0 || req.StudentID == 0 {
		return nil, apperror.Validation("placementId and studentId are required")
	}
	if req.TotalHours < 0 {
		return nil, apperror.Validation("totalHours cannot be negative")
	}
	if source == "" {
		source = models.CertificateSourceManual
	}

	cert := &models.Certificate{
		PlacementID:       req.PlacementID,
		StudentID:         req.StudentID,
		PracticeID:        req.PracticeID,
		ProfessorID:       req.ProfessorID,
		CertificateNumber: NewCertificateNumber(time.Now(), req.PlacementID),
		Status:            models.CertificatePending,
		Source:            source,
		StudentName:       strings.TrimSpace(req.StudentName),
		ProfessorName:     strings.TrimSpace(req.ProfessorName),
		PracticeName:      strings.TrimSpace(req.PracticeName),
		TotalHours:        utils.RoundHours(req.TotalHours),
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	}
	if err := w.certs.Create(ctx, cert); err != nil {
		return nil, err
	}

	metrics.IncrementCertificateTransition(models.CertificatePending)
	utils.InfoLogger.WithFields(logrus.Fields{
		"certificate_id":     cert.ID,
		"certificate_number": cert.CertificateNumber,
		"placement_id":       cert.PlacementID,
		"source":             source,
	}).Info("Certificate created")
	return cert, nil
}

// RequestByStudent lets a student ask for the certificate of their own
// completed placement.
func (w *CertificateWorkflow) RequestByStudent(ctx context.Context, actor Actor, placementID uint) (*models.Certificate, error) {
	if actor.Role != models.RoleStudent {
		return nil, apperror.Forbidden("only students can request their certificate")
	}
	summary, err := w.fetchSummary(ctx, placementID)
	if err != nil {
		return nil, err
	}
	if summary.StudentID != actor.ID {
		return nil, apperror.Forbidden("placement %d does not belong to you", placementID)
	}
	if summary.Status != models.PlacementCompleted {
		return nil, apperror.InvalidState("placement %d is %s, not COMPLETED", placementID, summary.Status)
	}

	start, end := summary.StartDate, summary.EndDate
	return w.Generate(ctx, contracts.GenerateCertificateRequest{
		PlacementID:   summary.PlacementID,
		StudentID:     summary.StudentID,
		PracticeID:    summary.PracticeID,
		StudentName:   summary.StudentName,
		ProfessorID:   summary.ProfessorID,
		ProfessorName: summary.ProfessorName,
		PracticeName:  summary.PracticeName,
		TotalHours:    summary.CompletedHours,
		StartDate:     &start,
		EndDate:       &end,
	}, models.CertificateSourceRequest)
}

func (w *CertificateWorkflow) fetchSummary(ctx context.Context, placementID uint) (*contracts.PlacementSummary, error) {
	if w.summaries == nil {
		return nil, apperror.External("practice service", errors.New("placement summaries are not configured"))
	}
	summary, err := w.summaries.PlacementSummary(ctx, placementID)
	if err != nil {
		if apperror.KindOf(err) == "" {
			err = apperror.External("practice service", err)
		}
		return nil, err
	}
	return summary, nil
}

func canDecide(actor Actor, cert *models.Certificate) bool {
	if actor.IsStaff() {
		return true
	}
	return actor.Role == models.RoleProfessor && cert.ProfessorID != nil && *cert.ProfessorID == actor.ID
}

func canRead(actor Actor, cert *models.Certificate) bool {
	switch actor.Role {
	case models.RoleCoordinator, models.RoleAdmin, models.RoleService:
		return true
	case models.RoleStudent:
		return cert.StudentID == actor.ID
	case models.RoleProfessor:
		return cert.ProfessorID != nil && *cert.ProfessorID == actor.ID
	default:
		return false
	}
}

// fillPlaceholders replaces blanks left after enrichment so the PDF never
// prints an empty name.
func fillPlaceholders(cert *models.Certificate) {
	if strings.TrimSpace(cert.StudentName) == "" {
		cert.StudentName = models.PlaceholderStudentName(cert.StudentID)
	}
	if strings.TrimSpace(cert.PracticeName) == "" {
		cert.PracticeName = models.PlaceholderPracticeName(cert.PracticeID)
	}
	if cert.ProfessorID != nil && strings.TrimSpace(cert.ProfessorName) == "" {
		cert.ProfessorName = models.PlaceholderProfessorName(*cert.ProfessorID)
	}
}

func (w *CertificateWorkflow) pdfURL(cert *models.Certificate) string {
	return fmt.Sprintf("/api/v1/certificates/%d/download", cert.ID)
}

func (w *CertificateWorkflow) render(ctx context.Context, cert *models.Certificate) error {
	path, err := w.renderer.Render(cert)
	if err != nil {
		return fmt.Errorf("render certificate %d: %w", cert.ID, err)
	}
	cert.PdfPath = path
	cert.PdfURL = w.pdfURL(cert)
	return w.certs.SaveDetails(ctx, cert)
}

// Approve enriches the certificate as far as possible, renders its PDF and
// marks it APPROVED. A rendering failure leaves it PENDING.
func (w *CertificateWorkflow) Approve(ctx context.Context, id uint, actor Actor, comments string) (*models.Certificate, error) {
	cert, err := w.certs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canDecide(actor, cert) {
		return nil, apperror.Forbidden("you cannot approve certificate %d", cert.ID)
	}
	if cert.Status != models.CertificatePending {
		return nil, apperror.InvalidState("certificate %d is %s, not PENDING", cert.ID, cert.Status)
	}

	if _, err := w.EnsureEnriched(ctx, cert); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"certificate_id": cert.ID,
		}).Warnf("Approving with incomplete data, enrichment failed: %v", err)
	}
	fillPlaceholders(cert)

	if cert.PdfPath == "" {
		if err := w.render(ctx, cert); err != nil {
			return nil, err
		}
	} else if err := w.certs.SaveDetails(ctx, cert); err != nil {
		return nil, err
	}

	now := time.Now()
	approver := actor.ID
	ok, err := w.certs.Transition(ctx, cert.ID, []string{models.CertificatePending}, models.CertificateApproved, map[string]interface{}{
		"approved_by":       &approver,
		"approved_at":       now,
		"approval_comments": strings.TrimSpace(comments),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("certificate %d is no longer PENDING", cert.ID)
	}

	metrics.IncrementCertificateTransition(models.CertificateApproved)
	utils.InfoLogger.Printf("Certificate %s approved by %s %d", cert.CertificateNumber, actor.Role, actor.ID)
	return w.certs.FindByID(ctx, cert.ID)
}

func (w *CertificateWorkflow) Reject(ctx context.Context, id uint, actor Actor, reason string) (*models.Certificate, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("reason is required")
	}
	cert, err := w.certs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canDecide(actor, cert) {
		return nil, apperror.Forbidden("you cannot reject certificate %d", cert.ID)
	}
	if cert.Status != models.CertificatePending {
		return nil, apperror.InvalidState("certificate %d is %s, not PENDING", cert.ID, cert.Status)
	}

	rejecter := actor.ID
	ok, err := w.certs.Transition(ctx, cert.ID, []string{models.CertificatePending}, models.CertificateRejected, map[string]interface{}{
		"rejected_by":      &rejecter,
		"rejected_at":      time.Now(),
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("certificate %d is no longer PENDING", cert.ID)
	}

	metrics.IncrementCertificateTransition(models.CertificateRejected)
	utils.InfoLogger.Printf("Certificate %s rejected by %s %d", cert.CertificateNumber, actor.Role, actor.ID)
	return w.certs.FindByID(ctx, cert.ID)
}

// Revoke is terminal. It is allowed from every state except REVOKED.
func (w *CertificateWorkflow) Revoke(ctx context.Context, id uint, actor Actor, reason string) (*models.Certificate, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperror.Forbidden("only admins can revoke certificates")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("reason is required")
	}
	cert, err := w.certs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.Status == models.CertificateRevoked {
		return nil, apperror.InvalidState("certificate %d is already REVOKED", cert.ID)
	}

	revoker := actor.ID
	from := []string{models.CertificatePending, models.CertificateApproved, models.CertificateRejected}
	ok, err := w.certs.Transition(ctx, cert.ID, from, models.CertificateRevoked, map[string]interface{}{
		"revoked_by":        &revoker,
		"revoked_at":        time.Now(),
		"revocation_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("certificate %d is already REVOKED", cert.ID)
	}

	metrics.IncrementCertificateTransition(models.CertificateRevoked)
	utils.InfoLogger.Printf("Certificate %s revoked by admin %d", cert.CertificateNumber, actor.ID)
	return w.certs.FindByID(ctx, cert.ID)
}

// EnsureEnriched backfills blank or placeholder fields from the placement
// summary and persists what changed. It is safe to call repeatedly.
func (w *CertificateWorkflow) EnsureEnriched(ctx context.Context, cert *models.Certificate) (bool, error) {
	if !cert.NeedsEnrichment() {
		return false, nil
	}

	fetchCtx := ctx
	if w.enrichTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, w.enrichTimeout)
		defer cancel()
	}
	summary, err := w.fetchSummary(fetchCtx, cert.PlacementID)
	if err != nil {
		metrics.IncrementEnrichment("failed")
		return false, err
	}

	if !applySummary(cert, summary) {
		metrics.IncrementEnrichment("unchanged")
		return false, nil
	}
	if err := w.certs.SaveDetails(ctx, cert); err != nil {
		return false, err
	}
	metrics.IncrementEnrichment("enriched")
	return true, nil
}

// applySummary copies summary data over placeholders only, so values set by
// hand are never overwritten.
func applySummary(cert *models.Certificate, s *contracts.PlacementSummary) bool {
	changed := false
	if cert.PracticeID == 0 && s.PracticeID != 0 {
		cert.PracticeID = s.PracticeID
		changed = true
	}
	if models.IsPlaceholderName(cert.StudentName) && !models.IsPlaceholderName(s.StudentName) {
		cert.StudentName = s.StudentName
		changed = true
	}
	if cert.ProfessorID == nil && s.ProfessorID != nil {
		id := *s.ProfessorID
		cert.ProfessorID = &id
		changed = true
	}
	if cert.ProfessorID != nil && models.IsPlaceholderName(cert.ProfessorName) && !models.IsPlaceholderName(s.ProfessorName) {
		cert.ProfessorName = s.ProfessorName
		changed = true
	}
	if models.IsPlaceholderName(cert.PracticeName) && !models.IsPlaceholderName(s.PracticeName) {
		cert.PracticeName = s.PracticeName
		changed = true
	}
	if cert.TotalHours <= 0 && s.CompletedHours > 0 {
		cert.TotalHours = utils.RoundHours(s.CompletedHours)
		changed = true
	}
	if cert.StartDate == nil && !s.StartDate.IsZero() {
		start := s.StartDate
		cert.StartDate = &start
		changed = true
	}
	if cert.EndDate == nil && !s.EndDate.IsZero() {
		end := s.EndDate
		cert.EndDate = &end
		changed = true
	}
	return changed
}

// refresh runs lazy enrichment for a read; failures only get logged.
func (w *CertificateWorkflow) refresh(ctx context.Context, cert *models.Certificate) {
	if _, err := w.EnsureEnriched(ctx, cert); err != nil {
		utils.ErrorLogger.Printf("Enrichment of certificate %d failed: %v", cert.ID, err)
	}
}

func (w *CertificateWorkflow) refreshAll(ctx context.Context, actor Actor, certs []models.Certificate) []models.Certificate {
	visible := make([]models.Certificate, 0, len(certs))
	for i := range certs {
		if !canRead(actor, &certs[i]) {
			continue
		}
		w.refresh(ctx, &certs[i])
		visible = append(visible, certs[i])
	}
	return visible
}

func (w *CertificateWorkflow) GetByID(ctx context.Context, id uint, actor Actor) (*models.Certificate, error) {
	cert, err := w.certs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, cert) {
		return nil, apperror.Forbidden("certificate %d is not visible to you", cert.ID)
	}
	w.refresh(ctx, cert)
	return cert, nil
}

func (w *CertificateWorkflow) GetByPlacement(ctx context.Context, placementID uint, actor Actor) ([]models.Certificate, error) {
	certs, err := w.certs.List(ctx, repository.CertificateFilter{PlacementID: &placementID})
	if err != nil {
		return nil, err
	}
	return w.refreshAll(ctx, actor, certs), nil
}

func (w *CertificateWorkflow) GetByStudent(ctx context.Context, studentID uint, actor Actor) ([]models.Certificate, error) {
	if actor.Role == models.RoleStudent && actor.ID != studentID {
		return nil, apperror.Forbidden("students can only list their own certificates")
	}
	certs, err := w.certs.List(ctx, repository.CertificateFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	return w.refreshAll(ctx, actor, certs), nil
}

// GetPending lists certificates awaiting a decision by actor.
func (w *CertificateWorkflow) GetPending(ctx context.Context, actor Actor) ([]models.Certificate, error) {
	if !actor.IsStaff() && actor.Role != models.RoleProfessor {
		return nil, apperror.Forbidden("role %q cannot review certificates", actor.Role)
	}
	certs, err := w.certs.List(ctx, repository.CertificateFilter{Status: models.CertificatePending})
	if err != nil {
		return nil, err
	}
	return w.refreshAll(ctx, actor, certs), nil
}

// Download returns the PDF of an APPROVED certificate, rendering it again
// when the stored file is gone.
func (w *CertificateWorkflow) Download(ctx context.Context, id uint, actor Actor) (*models.Certificate, []byte, error) {
	cert, err := w.certs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !canRead(actor, cert) {
		return nil, nil, apperror.Forbidden("certificate %d is not visible to you", cert.ID)
	}
	if cert.Status != models.CertificateApproved {
		return nil, nil, apperror.InvalidState("certificate %d is %s; only APPROVED certificates can be downloaded", cert.ID, cert.Status)
	}

	if cert.PdfPath != "" {
		data, err := w.renderer.Open(cert.PdfPath)
		if err == nil {
			return cert, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("open certificate %d: %w", cert.ID, err)
		}
		utils.ErrorLogger.Printf("PDF of certificate %d missing at %s, rendering again", cert.ID, cert.PdfPath)
	}

	fillPlaceholders(cert)
	if err := w.render(ctx, cert); err != nil {
		return nil, nil, err
	}
	data, err := w.renderer.Open(cert.PdfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open certificate %d: %w", cert.ID, err)
	}
	return cert, data, nil
}

// EnrichPending is the scheduled sweep over live certificates still missing
// data. It returns how many were enriched.
func (w *CertificateWorkflow) EnrichPending(ctx context.Context) (int, error) {
	certs, err := w.certs.ListIncomplete(ctx, enrichmentBatchSize)
	if err != nil {
		return 0, err
	}
	enriched := 0
	for i := range certs {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}
		changed, err := w.EnsureEnriched(ctx, &certs[i])
		if err != nil {
			utils.ErrorLogger.Printf("Enrichment sweep: certificate %d: %v", certs[i].ID, err)
			continue
		}
		if changed {
			enriched++
		}
	}
	return enriched, nil
}
