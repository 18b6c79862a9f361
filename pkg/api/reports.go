package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gorilla/mux"

	"agentguard-hq/agentguard/pkg/reports"
)

const reportNotFound = "Report not found"

// GenerateReportResponse acknowledges a started report job.
type GenerateReportResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// GenerateReport handles POST /api/reports/generate
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req reports.Request
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err, "")
		return
	}

	rec, err := h.generator.Start(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, GenerateReportResponse{
		ReportID: rec.ID,
		Status:   rec.Status,
		Message:  "Report generation started",
	})
}

// DownloadReport handles GET /api/reports/{id}/download
//
// A job that is still generating, or one that failed, is answered with its
// status rather than an error.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	rec, body, err := h.generator.Open(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, reports.ErrNotReady):
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  rec.Status,
			"message": "Report not ready yet",
		})
		return
	case errors.Is(err, reports.ErrFileMissing):
		writeDetail(w, http.StatusNotFound, "Report file not found")
		return
	case err != nil:
		h.writeError(w, r, err, reportNotFound)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(rec.FilePath)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "report download interrupted", "report_id", rec.ID, "error", err)
	}
}
