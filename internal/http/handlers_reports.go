package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"contas/internal/auth"
	"contas/internal/core"
	"contas/internal/export"
	applog "contas/internal/log"
)

const (
	noticePDFUnavailable = "pdf_unavailable"

	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

type (
	exportFunc    func(w io.Writer, txs []core.Transaction) error
	reportPDFFunc func(w io.Writer, owner string, r core.Report) error
)

var notices = map[string]string{
	noticePDFUnavailable: "PDF generation failed; showing the report data instead.",
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	d, err := s.deps.Reports.DashboardSummary(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	rep, err := s.deps.Reports.ReportSummary(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := toReport(rep)
	out.Notice = notices[r.URL.Query().Get("notice")]
	writeJSON(w, http.StatusOK, out)
}

// handleReportPDF renders the report as a PDF. Rendering failures send the
// client to the JSON report with a notice instead of an error page.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	rep, err := s.deps.Reports.ReportSummary(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner := ""
	if u, err := s.deps.Users.Profile(r.Context(), id.UserID); err == nil {
		owner = u.Name
	}

	var buf bytes.Buffer
	if err := s.renderPDF(&buf, owner, rep); err != nil {
		applog.LogError(r.Context(), "PDF generation failed", err, applog.ErrorTypeInternal, applog.OpExport, nil)
		http.Redirect(w, r, "/api/report?notice="+noticePDFUnavailable, http.StatusSeeOther)
		return
	}
	attachment(w, mimePDF, "report_"+rep.GeneratedAt.String()+".pdf", buf.Len())
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.exportTransactions(w, r, id, mimeCSV, "transactions.csv", export.WriteTransactionsCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.exportTransactions(w, r, id, mimeXLSX, "transactions.xlsx", export.WriteTransactionsXLSX)
}

func (s *Server) exportTransactions(w http.ResponseWriter, r *http.Request, id auth.Identity, mime, filename string, write exportFunc) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.deps.Ledger.ListTransactions(r.Context(), id.UserID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, items); err != nil {
		writeError(w, r, fmt.Errorf("export %s: %w", filename, err))
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		"format", filename,
		"rows", len(items))
	attachment(w, mime, filename, buf.Len())
	_, _ = buf.WriteTo(w)
}

func attachment(w http.ResponseWriter, mime, filename string, size int) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
}
