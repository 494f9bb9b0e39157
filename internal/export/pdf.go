package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"contas/internal/core"
)

// WriteReportPDF renders the printable report for owner.
func WriteReportPDF(w io.Writer, owner string, r core.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Financial report", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Financial report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(owner+" - "+r.PeriodLabel), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated on "+r.GeneratedAt.String(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Balances")
	for _, a := range r.Accounts {
		keyValue(pdf, tr(a.Label()), a.Balance.Format())
	}
	keyValue(pdf, "Total", r.Balances.Total.Format())
	keyValue(pdf, "Open debt", r.OpenDebt.Format())
	keyValue(pdf, "Net worth", r.NetWorth.Format())
	pdf.Ln(3)

	section(pdf, "Income and expenses")
	keyValue(pdf, "Month income", r.Month.Income.Format())
	keyValue(pdf, "Month expense", r.Month.Expense.Format())
	keyValue(pdf, "Month net", r.Month.Net().Format())
	keyValue(pdf, "All-time income", r.AllTime.Income.Format())
	keyValue(pdf, "All-time expense", r.AllTime.Expense.Format())
	pdf.Ln(3)

	if len(r.Categories) > 0 {
		section(pdf, "Expenses by category")
		for _, c := range r.Categories {
			keyValue(pdf, tr(c.Name), c.Amount.Format())
		}
		pdf.Ln(3)
	}

	section(pdf, "Latest transactions")
	widths := []float64{24, 30, 20, 26, 80}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Date", "Account", "Kind", "Amount", "Description"} {
		pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, t := range r.Transactions {
		cells := []string{t.Date.String(), t.AccountName, string(t.Kind), t.Amount.String(), t.Description}
		for i, c := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 5, tr(truncate(c, 48)), "", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func keyValue(pdf *fpdf.Fpdf, key, value string) {
	pdf.CellFormat(70, 6, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, value, "", 1, "R", false, 0, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
