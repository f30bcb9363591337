package v1alpha1

import (
	"fmt"
	"net/http"

	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/handlers/v1alpha1/mappers"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/pkg/log"
)

// (POST /api/v1/jobs/{id}/runs)
func (h *ServiceHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("run_handler").WithContext(r.Context()).Operation("start_run").Build()

	jobID, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "start run")
		return
	}

	var body api.RunCreate
	if err := decode(r, &body); err != nil {
		respondError(w, r, err, "start run")
		return
	}

	runID, err := h.screeningSrv.StartRun(r.Context(), jobID, body.ResumeIds)
	if err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "start run")
		return
	}

	run, err := h.screeningSrv.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, r, err, "start run")
		return
	}

	logger.Success().WithUUID("run_id", runID).Log()
	w.Header().Set("Location", fmt.Sprintf("/api/v1/runs/%s", runID))
	respond(w, r, http.StatusAccepted, mappers.RunToApi(*run))
}

// (GET /api/v1/jobs/{id}/runs)
func (h *ServiceHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "list runs")
		return
	}
	if _, err := h.jobSrv.GetJobOpening(r.Context(), jobID); err != nil {
		respondError(w, r, err, "list runs")
		return
	}

	runs, err := h.screeningSrv.ListRuns(r.Context(), jobID)
	if err != nil {
		respondError(w, r, err, "list runs")
		return
	}
	respond(w, r, http.StatusOK, mappers.RunListToApi(runs))
}

// (GET /api/v1/runs/{id})
func (h *ServiceHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "get run")
		return
	}

	run, err := h.screeningSrv.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get run")
		return
	}
	respond(w, r, http.StatusOK, mappers.RunToApi(*run))
}

// (POST /api/v1/runs/{id}/cancel)
func (h *ServiceHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("run_handler").WithContext(r.Context()).Operation("cancel_run").Build()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "cancel run")
		return
	}

	if err := h.screeningSrv.CancelRun(r.Context(), id); err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "cancel run")
		return
	}

	logger.Success().WithUUID("run_id", id).Log()
	w.WriteHeader(http.StatusAccepted)
}

// (GET /api/v1/runs/{id}/report)
func (h *ServiceHandler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "get run report")
		return
	}

	format := service.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = service.ReportFormatCSV
	}

	report, err := h.reportSrv.GenerateRunReport(r.Context(), id, format)
	if err != nil {
		respondError(w, r, err, "get run report")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}
