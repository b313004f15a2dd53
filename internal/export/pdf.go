package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// pdfEpoch is stamped as creation and modification date so equal results
// give equal bytes.
var pdfEpoch = time.Unix(0, 0).UTC()

// PDF lays out title, summary, chapters and the timed transcript using the
// core Helvetica font. Text outside cp1252 is replaced.
func PDF(res models.JobResult) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := strings.TrimSpace(res.Title)
	pdf.SetTitle(reportTitle, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, reportTitle, "", 1, "C", false, 0, "")
	if title != "" {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(0, 8, tr(title), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}

	heading("Summary")
	pdf.MultiCell(0, 6, tr(strings.TrimSpace(res.Summary)), "", "L", false)
	pdf.Ln(4)

	s := res.Sentiment
	heading("Sentiment")
	pdf.MultiCell(0, 6, fmt.Sprintf("Positive %.0f%%   Neutral %.0f%%   Negative %.0f%%", s.Pos*100, s.Neu*100, s.Neg*100), "", "L", false)
	pdf.Ln(4)

	if len(res.Chapters) > 0 {
		heading("Chapters")
		for _, c := range res.Chapters {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s - %s  %s", clock(c.Start), clock(c.End), c.Title)), "", "L", false)
		}
		pdf.Ln(4)
	}

	heading("Transcript")
	for _, it := range res.Transcript {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("[%.2fs] %s: %s", it.Start, it.Speaker, text)), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
