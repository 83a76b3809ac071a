// Package report renders tickets and spare parts to PDF and Excel.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"maintenance-backend/internal/model"
)

var brandGreen = [3]int{0, 154, 155}

// TicketReport carries everything printed on a ticket's PDF.
type TicketReport struct {
	Ticket       model.Ticket
	MachineName  string
	Username     string
	CategoryName string
	Problem      string
	Solution     string
}

// PDFOptions holds the static text of the document.
type PDFOptions struct {
	Title   string
	Footer  []string
	Website string
}

// TicketPDF writes a one-ticket maintenance report.
func TicketPDF(w io.Writer, r TicketReport, opts PDFOptions) error {
	if opts.Title == "" {
		opts.Title = "Maintenance Report"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFooterFunc(func() {
		top := pageH - 30
		pdf.SetFillColor(brandGreen[0], brandGreen[1], brandGreen[2])
		pdf.Rect(0, top, pageW, 30, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "", 10)
		for i, line := range opts.Footer {
			pdf.Text(14, top+10+float64(i)*5, tr(line))
		}
		if opts.Website != "" {
			pdf.SetXY(pageW-14-80, top+6)
			pdf.CellFormat(80, 5, tr(opts.Website), "", 0, "R", false, 0, "")
		}
	})
	pdf.SetAutoPageBreak(true, 35)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.Rect(0, 0, pageW, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(0, 10)
	pdf.CellFormat(pageW, 10, tr(opts.Title), "", 1, "C", false, 0, "")

	t := r.Ticket
	critical := "No"
	if t.Critical {
		critical = "Yes"
	}
	details := []struct{ label, value string }{
		{"Ticket ID:", strconv.FormatInt(t.ID, 10)},
		{"Title:", t.Title},
		{"Description:", t.Description},
		{"Status:", string(t.Status)},
		{"Scheduled Date:", t.ScheduledDate.Format("2006-01-02")},
		{"Machine:", orDefault(r.MachineName, "N/A")},
		{"Assigned User:", orDefault(r.Username, "Unassigned")},
		{"Critical:", critical},
		{"Category:", orDefault(r.CategoryName, "N/A")},
	}

	pdf.SetY(40)
	pdf.SetFont("Helvetica", "", 12)
	for _, d := range details {
		y := pdf.GetY()
		pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
		pdf.SetXY(14, y)
		pdf.CellFormat(46, 8, d.label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(60, y)
		pdf.MultiCell(pageW-74, 8, tr(d.value), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.SetX(14)
	pdf.CellFormat(0, 8, "Completion Details:", "", 1, "L", false, 0, "")

	for _, section := range []struct{ label, text string }{
		{"Problem:", r.Problem},
		{"Solution:", r.Solution},
	} {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
		pdf.SetX(14)
		pdf.CellFormat(0, 8, section.label, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetX(14)
		pdf.MultiCell(pageW-28, 6, tr(section.text), "", "L", false)
		pdf.Ln(2)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render ticket %d report: %w", t.ID, err)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
