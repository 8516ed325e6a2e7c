// Package pdf renders certificate documents and keeps them on local disk.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
)

type CertificateRenderer struct {
	Dir    string
	Issuer string
}

func NewCertificateRenderer(dir string) *CertificateRenderer {
	return &CertificateRenderer{Dir: dir, Issuer: "Practice Placement Office"}
}

func (r *CertificateRenderer) fileName(cert *models.Certificate) string {
	return strings.ReplaceAll(cert.CertificateNumber, "/", "-") + ".pdf"
}

// Render writes the certificate PDF and returns its path.
func (r *CertificateRenderer) Render(cert *models.Certificate) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificate dir: %w", err)
	}
	path := filepath.Join(r.Dir, r.fileName(cert))

	doc := r.build(cert)
	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	utils.InfoLogger.Printf("Certificate PDF written: %s", path)
	return path, nil
}

func (r *CertificateRenderer) Open(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *CertificateRenderer) build(cert *models.Certificate) *fpdf.Fpdf {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetTitle("Certificate "+cert.CertificateNumber, true)
	doc.SetAuthor(r.Issuer, true)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := doc.GetPageSize()

	// Border
	doc.SetDrawColor(40, 70, 120)
	doc.SetLineWidth(1.5)
	doc.Rect(10, 10, pageW-20, pageH-20, "D")
	doc.SetLineWidth(0.4)
	doc.Rect(14, 14, pageW-28, pageH-28, "D")

	doc.SetY(32)
	doc.SetTextColor(40, 70, 120)
	doc.SetFont("Helvetica", "B", 30)
	doc.CellFormat(0, 14, tr("CERTIFICATE OF COMPLETION"), "", 1, "C", false, 0, "")

	doc.SetTextColor(60, 60, 60)
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 8, tr("No. "+cert.CertificateNumber), "", 1, "C", false, 0, "")

	doc.Ln(10)
	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 8, tr("This is to certify that"), "", 1, "C", false, 0, "")

	doc.Ln(2)
	doc.SetTextColor(20, 20, 20)
	doc.SetFont("Helvetica", "B", 24)
	doc.CellFormat(0, 14, tr(cert.StudentName), "", 1, "C", false, 0, "")

	doc.Ln(2)
	doc.SetTextColor(60, 60, 60)
	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 8, tr("has completed the practice placement"), "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, tr(cert.PracticeName), "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 13)
	period := fmt.Sprintf("from %s to %s, totalling %s hours",
		utils.FormatDate(cert.StartDate), utils.FormatDate(cert.EndDate), utils.FormatHours(cert.TotalHours))
	doc.CellFormat(0, 9, tr(period), "", 1, "C", false, 0, "")

	if cert.ProfessorName != "" {
		doc.CellFormat(0, 9, tr("under the academic supervision of "+cert.ProfessorName), "", 1, "C", false, 0, "")
	}

	issued := time.Now()
	doc.SetY(pageH - 45)
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr("Issued on "+utils.FormatDate(&issued)), "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "I", 10)
	doc.CellFormat(0, 6, tr(r.Issuer), "", 1, "C", false, 0, "")

	return doc
}
