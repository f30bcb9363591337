package v1alpha1

import (
	"net/http"

	api "github.com/recruitly/screening-engine/api/v1alpha1"
	"github.com/recruitly/screening-engine/internal/auth"
	"github.com/recruitly/screening-engine/internal/handlers/v1alpha1/mappers"
	"github.com/recruitly/screening-engine/internal/pipeline"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store/model"
	"github.com/recruitly/screening-engine/pkg/log"
)

// (POST /api/v1/resumes)
func (h *ServiceHandler) SubmitResume(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("resume_handler").WithContext(r.Context()).Operation("submit_resume").Build()

	var body api.ResumeCreate
	if err := decode(r, &body); err != nil {
		respondError(w, r, err, "submit resume")
		return
	}

	resume, err := h.resumeSrv.SubmitResume(r.Context(), mappers.ResumeFormApi(body))
	if err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "submit resume")
		return
	}

	logger.Success().WithUUID("resume_id", resume.ID).Log()
	respond(w, r, http.StatusCreated, mappers.ResumeToApi(*resume))
}

// (GET /api/v1/resumes/{id})
func (h *ServiceHandler) GetResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "get resume")
		return
	}

	resume, err := h.resumeSrv.GetResume(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get resume")
		return
	}
	respond(w, r, http.StatusOK, mappers.ResumeToApi(*resume))
}

// (DELETE /api/v1/resumes/{id})
func (h *ServiceHandler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "delete resume")
		return
	}

	if err := h.resumeSrv.DeleteResume(r.Context(), id); err != nil {
		respondError(w, r, err, "delete resume")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// (POST /api/v1/resumes/{id}/stage)
func (h *ServiceHandler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("resume_handler").WithContext(r.Context()).Operation("change_stage").Build()

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "change stage")
		return
	}

	var body api.StageChange
	if err := decode(r, &body); err != nil {
		respondError(w, r, err, "change stage")
		return
	}
	action, ok := api.StringToStageAction(string(body.Action))
	if !ok {
		respondError(w, r, service.NewErrInvalidRequest("unknown action %q", body.Action), "change stage")
		return
	}

	if body.Actor == "" {
		if user, found := auth.UserFromContext(r.Context()); found {
			body.Actor = user.Username
		}
	}

	var resume *model.Resume
	switch action {
	case api.StageActionReject:
		resume, err = h.pipelineSrv.Reject(r.Context(), id, body.Actor, body.Reason)
	case api.StageActionAdvance:
		var stage pipeline.Stage
		if body.Stage != "" {
			if stage, err = pipeline.ParseStage(body.Stage); err != nil {
				respondError(w, r, err, "change stage")
				return
			}
		}
		resume, err = h.pipelineSrv.Advance(r.Context(), id, stage, body.Actor)
	case api.StageActionSkip:
		stage, perr := pipeline.ParseStage(body.Stage)
		if perr != nil {
			respondError(w, r, perr, "change stage")
			return
		}
		resume, err = h.pipelineSrv.Skip(r.Context(), id, stage, body.Actor, body.Reason)
	}
	if err != nil {
		logger.Error(err).WithString("action", string(action)).Log()
		respondError(w, r, err, "change stage")
		return
	}

	logger.Success().WithUUID("resume_id", id).WithString("stage", resume.PipelineStage).Log()
	respond(w, r, http.StatusOK, mappers.ResumeToApi(*resume))
}

// (GET /api/v1/resumes/{id}/history)
func (h *ServiceHandler) GetStageHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, "get stage history")
		return
	}

	transitions, err := h.pipelineSrv.History(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get stage history")
		return
	}
	respond(w, r, http.StatusOK, mappers.StageTransitionsToApi(transitions))
}
