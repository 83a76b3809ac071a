package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"maintenance-backend/internal/model"
)

const sheet = "Sheet1"

// XLSXContentType is the MIME type of the exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sparePartHeader = []any{"Name", "Part Number", "Quantity", "Reorder Level", "Location", "Supplier"}

// TicketsXLSX exports tickets, one per row.
func TicketsXLSX(w io.Writer, tickets []model.Ticket) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"ID", "Title", "Machine", "Assigned User", "Category", "Status", "Critical", "Intervention", "Scheduled Date", "Completed Date", "Created At", "Completion Notes"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, t := range tickets {
		var machine, user, category, completed string
		if t.Machine != nil {
			machine = t.Machine.Name
		}
		if t.User != nil {
			user = t.User.Username
		}
		if t.Category != nil {
			category = t.Category.Name
		}
		if t.CompletedDate != nil {
			completed = t.CompletedDate.Format("2006-01-02 15:04")
		}
		intervention := "internal"
		if t.InterventionType {
			intervention = "external"
		}
		row := []any{
			t.ID, t.Title, machine, user, category, string(t.Status), t.Critical, intervention,
			t.ScheduledDate.Format("2006-01-02"), completed, t.CreatedAt.Format("2006-01-02 15:04"), t.CompletionNotes,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write tickets workbook: %w", err)
	}
	return nil
}

// SparePartsXLSX exports spare parts in the same layout ParseSparePartsXLSX reads.
func SparePartsXLSX(w io.Writer, parts []model.SparePart) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheet, "A1", &sparePartHeader); err != nil {
		return err
	}
	for i, p := range parts {
		row := []any{p.Name, p.PartNumber, p.Quantity, p.ReorderLevel, p.Location, p.Supplier}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write spare parts workbook: %w", err)
	}
	return nil
}

// ImportResult lists the parsed spare parts and the rows that were rejected.
type ImportResult struct {
	TotalRows int               `json:"totalRows"`
	Parts     []model.SparePart `json:"-"`
	Errors    []string          `json:"errors"`
}

// ParseSparePartsXLSX reads the first sheet of a spare parts workbook.
// The first row is a header; MachineID is left for the caller to set.
func ParseSparePartsXLSX(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, errors.New("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return ImportResult{}, errors.New("excel file must contain header and at least one data row")
	}

	result := ImportResult{TotalRows: len(rows) - 1, Errors: []string{}}
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		part := model.SparePart{
			Name:       cell(0),
			PartNumber: cell(1),
			Location:   cell(4),
			Supplier:   cell(5),
		}
		if part.Name == "" || part.PartNumber == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: name and part number are required", line))
			continue
		}
		if part.Quantity, err = intAtLeast(cell(2), 0); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: quantity: %v", line, err))
			continue
		}
		if part.ReorderLevel, err = intAtLeast(cell(3), 1); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: reorder level: %v", line, err))
			continue
		}
		result.Parts = append(result.Parts, part)
	}
	return result, nil
}

// intAtLeast parses v, defaulting empty cells to 1.
func intAtLeast(v string, min int) (int, error) {
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if n < min {
		return 0, fmt.Errorf("must be at least %d, got %d", min, n)
	}
	return n, nil
}
