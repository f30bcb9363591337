package v1alpha1

import (
	"net/http"
	"strconv"

	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/handlers/v1alpha1/mappers"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/pkg/log"
)

// (POST /api/v1/jobs)
func (h *ServiceHandler) CreateJobOpening(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("job_handler").WithContext(r.Context()).Operation("create_job_opening").Build()

	var body api.JobOpeningCreate
	if err := decode(r, &body); err != nil {
		respondError(w, r, err, "create job opening")
		return
	}

	job, err := h.jobSrv.CreateJobOpening(r.Context(), mappers.JobOpeningFormApi(body))
	if err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "create job opening")
		return
	}

	logger.Success().WithUUID("job_id", job.ID).Log()
	respond(w, r, http.StatusCreated, mappers.JobOpeningToApi(*job))
}

// (GET /api/v1/jobs)
func (h *ServiceHandler) ListJobOpenings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.JobOpeningFilter{
		CompanyID: q.Get("companyId"),
		Status:    q.Get("status"),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				respondError(w, r, service.NewErrInvalidRequest("invalid %s %q", key, v), "list job openings")
				return
			}
			*dst = n
		}
	}

	jobs, err := h.jobSrv.ListJobOpenings(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, "list job openings")
		return
	}
	respond(w, r, http.StatusOK, mappers.JobOpeningListToApi(jobs))
}

// (GET /api/v1/jobs/{id})
func (h *ServiceHandler) GetJobOpening(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "get job opening")
		return
	}

	job, err := h.jobSrv.GetJobOpening(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get job opening")
		return
	}
	respond(w, r, http.StatusOK, mappers.JobOpeningToApi(*job))
}

// (PUT /api/v1/jobs/{id})
func (h *ServiceHandler) UpdateJobOpening(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("job_handler").WithContext(r.Context()).Operation("update_job_opening").Build()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "update job opening")
		return
	}

	var body api.JobOpeningUpdate
	if err := decode(r, &body); err != nil {
		respondError(w, r, err, "update job opening")
		return
	}

	job, err := h.jobSrv.UpdateJobOpening(r.Context(), id, mappers.JobOpeningUpdateFormApi(body))
	if err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "update job opening")
		return
	}

	logger.Success().WithUUID("job_id", id).Log()
	respond(w, r, http.StatusOK, mappers.JobOpeningToApi(*job))
}

// (POST /api/v1/jobs/{id}/close)
func (h *ServiceHandler) CloseJobOpening(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "close job opening")
		return
	}

	job, err := h.jobSrv.CloseJobOpening(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "close job opening")
		return
	}
	respond(w, r, http.StatusOK, mappers.JobOpeningToApi(*job))
}

// (DELETE /api/v1/jobs/{id})
func (h *ServiceHandler) DeleteJobOpening(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "delete job opening")
		return
	}

	if err := h.jobSrv.DeleteJobOpening(r.Context(), id); err != nil {
		respondError(w, r, err, "delete job opening")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// (GET /api/v1/jobs/{id}/resumes)
func (h *ServiceHandler) ListResumes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "list resumes")
		return
	}
	if _, err := h.jobSrv.GetJobOpening(r.Context(), id); err != nil {
		respondError(w, r, err, "list resumes")
		return
	}

	resumes, err := h.resumeSrv.ListResumes(r.Context(), id, r.URL.Query().Get("stage"))
	if err != nil {
		respondError(w, r, err, "list resumes")
		return
	}
	respond(w, r, http.StatusOK, mappers.ResumeListToApi(resumes))
}
