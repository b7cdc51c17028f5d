// Package report renders printable job site reports.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

// ErrPDFCreationFailed is returned when the PDF cannot be produced
var ErrPDFCreationFailed = errors.New("PDF creation failed")

// Config holds page layout settings
type Config struct {
	FontName     string
	FontSize     float64
	LineHeight   float64
	Margin       float64
	PageSize     string
	Author       string
	GeneratedAt  time.Time
	MaxURLLength int
}

// DefaultConfig returns an A4 portrait layout using a core font
func DefaultConfig() Config {
	return Config{
		FontName:     "Helvetica",
		FontSize:     10,
		LineHeight:   6,
		Margin:       15,
		PageSize:     "A4",
		Author:       "Job Site API",
		GeneratedAt:  time.Now().UTC(),
		MaxURLLength: 90,
	}
}

// WriteJobReport writes a PDF summary of job and its photos to w
func WriteJobReport(w io.Writer, job *domain.Job, cfg Config) error {
	pdf := gofpdf.New("P", "mm", cfg.PageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(fmt.Sprintf("Job %d", job.ID), true)
	pdf.SetAuthor(cfg.Author, true)
	pdf.SetCreator(cfg.Author, true)
	pdf.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	pdf.SetAutoPageBreak(true, cfg.Margin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-cfg.Margin)
		pdf.SetFont(cfg.FontName, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont(cfg.FontName, "B", 16)
	pdf.CellFormat(0, 10, tr(job.Name), "", 1, "L", false, 0, "")

	pdf.SetFont(cfg.FontName, "", cfg.FontSize)
	pdf.CellFormat(0, cfg.LineHeight, fmt.Sprintf("Job #%d", job.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, cfg.LineHeight, fmt.Sprintf("Location: %.5f, %.5f", job.Latitude, job.Longitude), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, cfg.LineHeight, "Generated: "+cfg.GeneratedAt.Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(cfg.FontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Photos (%d)", len(job.Photos)), "", 1, "L", false, 0, "")

	if len(job.Photos) == 0 {
		pdf.SetFont(cfg.FontName, "", cfg.FontSize)
		pdf.CellFormat(0, cfg.LineHeight, "No photos recorded for this job.", "", 1, "L", false, 0, "")
	} else {
		writePhotoTable(pdf, tr, job.Photos, cfg)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFCreationFailed, err)
	}
	return nil
}

// Truncate shortens s to at most limit runes, marking a cut with "...".
// A limit of zero or less disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

const ellipsis = "..."

func writePhotoTable(pdf *gofpdf.Fpdf, tr func(string) string, photos []domain.JobSitePhoto, cfg Config) {
	widths := []float64{12, 26, 26, 18, 0}
	headers := []string{"ID", "Latitude", "Longitude", "Heading", "URL"}

	pdf.SetFont(cfg.FontName, "B", cfg.FontSize)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, h, "1", ln, "L", true, 0, "")
	}

	pdf.SetFont(cfg.FontName, "", cfg.FontSize-1)
	for _, p := range photos {
		url := p.PhotoUploadURL
		if url == "" {
			url = "(metadata only)"
		} else {
			url = tr(Truncate(url, cfg.MaxURLLength))
		}

		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", p.ID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.5f", p.Latitude), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.5f", p.Longitude), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%d", p.Heading), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, url, "1", 1, "L", false, 0, p.PhotoUploadURL)
	}
}
