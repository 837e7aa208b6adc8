package certificates

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// Certificate holds the fields printed on a donation certificate.
type Certificate struct {
	DonationID   uuid.UUID
	DonorName    string
	HospitalName string
	BloodGroup   string
	Units        int
	IssuedAt     time.Time
}

// Generator produces a certificate document and returns its public URL.
type Generator interface {
	Generate(ctx context.Context, cert Certificate) (string, error)
}

// PDFGenerator renders certificates as PDF files on local disk.
type PDFGenerator struct {
	dir      string
	basePath string
}

// NewPDFGenerator creates a generator writing into dir, served under basePath.
func NewPDFGenerator(dir, basePath string) *PDFGenerator {
	return &PDFGenerator{dir: dir, basePath: basePath}
}

// Generate writes the PDF and returns the URL path clients can fetch it from.
func (g *PDFGenerator) Generate(ctx context.Context, cert Certificate) (string, error) {
	if cert.DonationID == uuid.Nil {
		return "", fmt.Errorf("donation id is required")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating certificates dir: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 30, "Certificate of Appreciation", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 12, "This certificate is proudly presented to", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 16, cert.DonorName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	units := "blood"
	if cert.Units == 1 {
		units = "1 unit of blood"
	} else if cert.Units > 1 {
		units = fmt.Sprintf("%d units of blood", cert.Units)
	}
	body := fmt.Sprintf("for donating %s (%s) at %s on %s.",
		units, cert.BloodGroup, cert.HospitalName, cert.IssuedAt.Format("January 2, 2006"))
	pdf.CellFormat(0, 12, body, "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate ID: %s", cert.DonationID), "", 1, "C", false, 0, "")

	filename := fmt.Sprintf("%s.pdf", cert.DonationID)
	fullPath := filepath.Join(g.dir, filename)
	if err := pdf.OutputFileAndClose(fullPath); err != nil {
		return "", fmt.Errorf("writing certificate pdf: %w", err)
	}

	return path.Join(g.basePath, filename), nil
}
