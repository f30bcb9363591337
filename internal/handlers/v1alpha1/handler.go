package v1alpha1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/handlers/validator"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/requestid"
)

type StatsProvider interface {
	Statistics(ctx context.Context) (model.ScreeningStats, error)
}

type ServiceHandler struct {
	jobSrv       *service.JobOpeningService
	resumeSrv    *service.ResumeService
	screeningSrv *service.ScreeningService
	pipelineSrv  *service.PipelineService
	reportSrv    *service.ReportService
	stats        StatsProvider
}

func NewServiceHandler(
	jobSrv *service.JobOpeningService,
	resumeSrv *service.ResumeService,
	screeningSrv *service.ScreeningService,
	pipelineSrv *service.PipelineService,
	reportSrv *service.ReportService,
	stats StatsProvider,
) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:       jobSrv,
		resumeSrv:    resumeSrv,
		screeningSrv: screeningSrv,
		pipelineSrv:  pipelineSrv,
		reportSrv:    reportSrv,
		stats:        stats,
	}
}

// Routes mounts the v1 API on r.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", h.GetStats)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.CreateJobOpening)
			r.Get("/", h.ListJobOpenings)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetJobOpening)
				r.Put("/", h.UpdateJobOpening)
				r.Delete("/", h.DeleteJobOpening)
				r.Post("/close", h.CloseJobOpening)
				r.Get("/resumes", h.ListResumes)
				r.Post("/runs", h.StartRun)
				r.Get("/runs", h.ListRuns)
			})
		})

		r.Route("/resumes", func(r chi.Router) {
			r.Post("/", h.SubmitResume)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetResume)
				r.Delete("/", h.DeleteResume)
				r.Post("/stage", h.ChangeStage)
				r.Get("/history", h.GetStageHistory)
			})
		})

		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", h.GetRun)
			r.Post("/cancel", h.CancelRun)
			r.Get("/report", h.GetRunReport)
		})
	})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.NewErrInvalidRequest("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return service.NewErrInvalidRequest("invalid request body: %v", err)
	}
	return nil
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		invalid    *service.ErrInvalidRequest
		validation *validator.ErrValidation
		notFound   *service.ErrResourceNotFound
		active     *service.ErrRunAlreadyActive
		finished   *service.ErrRunFinished
		closed     *service.ErrJobOpeningClosed
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &validation), errors.Is(err, pipeline.ErrUnknownStage):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &active), errors.As(err, &finished), errors.As(err, &closed), errors.Is(err, pipeline.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fmt.Sprintf("failed to %s: %v", op, err)
	}
	respond(w, r, status, api.Error{Message: msg, RequestId: requestid.FromContextPtr(r.Context())})
}
