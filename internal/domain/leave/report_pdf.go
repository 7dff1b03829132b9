package leave

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// BalanceReportPDF renders the per-employee balance report as a PDF
// document and returns the raw bytes.
func BalanceReportPDF(year int, rows []BalanceReportRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave Balance Report %d", year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	headers := []struct {
		width float64
		label string
	}{
		{55, "Employee"},
		{40, "Leave Type"},
		{24, "Entitlement"},
		{24, "Carried"},
		{24, "Used"},
		{24, "Available"},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 8, h.label, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(55, 7, row.UserName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row.LeaveType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(24, 7, row.Balance.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, row.CarryForward.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, row.Used.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, row.Available.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
