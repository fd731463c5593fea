package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

// PipelineHandler exposes the content-production pipeline: productions,
// scripts and review, asset creation, file uploads and publishing.
type PipelineHandler struct {
	service service.PipelineService
	files   *FileStore
	logger  *slog.Logger
}

func NewPipelineHandler(s service.PipelineService, files *FileStore, logger *slog.Logger) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{service: s, files: files, logger: logger}
}

func (h *PipelineHandler) CreateProduction(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateProduction"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateProductionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	production, err := h.service.CreateProduction(r.Context(), user, &req)
	if err != nil {
		logger.Error("Error creating production in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Production created", slog.Uint64("production_id", uint64(production.ID)))
	webutil.RespondWithJSON(w, http.StatusCreated, production, logger)
}

func (h *PipelineHandler) GetProduction(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProduction"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	productionID, err := parseUintParam(r, "productionID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	production, err := h.service.GetProduction(r.Context(), user, productionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, production, logger)
}

func (h *PipelineHandler) ListProductions(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListProductions"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	filter := model.ProductionFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("character_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			characterID := uint(id)
			filter.CharacterID = &characterID
		}
	}

	productions, err := h.service.ListProductions(r.Context(), user, filter)
	if err != nil {
		logger.Error("Error listing productions in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, productions, logger)
}

func (h *PipelineHandler) CreateScript(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateScript"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	productionID, err := parseUintParam(r, "productionID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateScriptRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	script, err := h.service.CreateScript(r.Context(), user, productionID, &req)
	if err != nil {
		logger.Error("Error creating script in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Script created", slog.Uint64("script_id", uint64(script.ID)))
	webutil.RespondWithJSON(w, http.StatusCreated, script, logger)
}

func (h *PipelineHandler) SubmitScript(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SubmitScript"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	scriptID, err := parseUintParam(r, "scriptID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	script, err := h.service.SubmitScriptForReview(r.Context(), user, scriptID)
	if err != nil {
		logger.Warn("Error submitting script in service", slog.Any("error", err), slog.Uint64("script_id", uint64(scriptID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, script, logger)
}

func (h *PipelineHandler) ApproveScript(w http.ResponseWriter, r *http.Request) {
	h.reviewScript(w, r, true)
}

func (h *PipelineHandler) RejectScript(w http.ResponseWriter, r *http.Request) {
	h.reviewScript(w, r, false)
}

func (h *PipelineHandler) reviewScript(w http.ResponseWriter, r *http.Request, approve bool) {
	name := "RejectScript"
	if approve {
		name = "ApproveScript"
	}
	logger := h.logger.With(slog.String("handler", name))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	scriptID, err := parseUintParam(r, "scriptID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.ApproveScriptRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var script *model.Script
	if approve {
		script, err = h.service.ApproveScript(r.Context(), user, scriptID, &req)
	} else {
		script, err = h.service.RejectScript(r.Context(), user, scriptID, &req)
	}
	if err != nil {
		logger.Warn("Error reviewing script in service", slog.Any("error", err), slog.Uint64("script_id", uint64(scriptID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Script reviewed", slog.Uint64("script_id", uint64(scriptID)), slog.String("status", script.Status))
	webutil.RespondWithJSON(w, http.StatusOK, script, logger)
}

func (h *PipelineHandler) CreateIllustration(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateIllustration"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateIllustrationRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	illustration, err := h.service.CreateIllustration(r.Context(), user, &req)
	if err != nil {
		logger.Error("Error creating illustration in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, illustration, logger)
}

// UploadIllustrationFile accepts a multipart "file" field; the upload kind
// (sketch, thumbnail or final) comes from the URL.
func (h *PipelineHandler) UploadIllustrationFile(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UploadIllustrationFile"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	illustrationID, err := parseUintParam(r, "illustrationID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = service.FileKindFinal
	}

	path, _, err := h.files.Save(r, "file", "illustrations")
	if err != nil {
		logger.Warn("Upload failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	illustration, err := h.service.AttachIllustrationFile(r.Context(), user, illustrationID, kind, path)
	if err != nil {
		h.files.Remove(path)
		logger.Error("Error attaching illustration file in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Illustration file uploaded", slog.Uint64("illustration_id", uint64(illustrationID)), slog.String("kind", kind))
	webutil.RespondWithJSON(w, http.StatusOK, illustration, logger)
}

func (h *PipelineHandler) CreateVoiceRecording(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateVoiceRecording"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateVoiceRecordingRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recording, err := h.service.CreateVoiceRecording(r.Context(), user, &req)
	if err != nil {
		logger.Error("Error creating voice recording in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, recording, logger)
}

func (h *PipelineHandler) UploadVoiceAudio(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UploadVoiceAudio"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recordingID, err := parseUintParam(r, "recordingID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	path, size, err := h.files.Save(r, "file", "voice")
	if err != nil {
		logger.Warn("Upload failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	recording, err := h.service.AttachVoiceAudio(r.Context(), user, recordingID, path, size)
	if err != nil {
		h.files.Remove(path)
		logger.Error("Error attaching voice audio in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Voice audio uploaded", slog.Uint64("recording_id", uint64(recordingID)), slog.Int64("size", size))
	webutil.RespondWithJSON(w, http.StatusOK, recording, logger)
}

func (h *PipelineHandler) CreateAnimation(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateAnimation"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateAnimationRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	animation, err := h.service.CreateAnimation(r.Context(), user, &req)
	if err != nil {
		logger.Error("Error creating animation in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, animation, logger)
}

func (h *PipelineHandler) UploadAnimationFile(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UploadAnimationFile"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	animationID, err := parseUintParam(r, "animationID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = service.FileKindFinal
	}

	path, size, err := h.files.Save(r, "file", "animations")
	if err != nil {
		logger.Warn("Upload failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	animation, err := h.service.AttachAnimationFile(r.Context(), user, animationID, kind, path, size)
	if err != nil {
		h.files.Remove(path)
		logger.Error("Error attaching animation file in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Animation file uploaded", slog.Uint64("animation_id", uint64(animationID)), slog.String("kind", kind))
	webutil.RespondWithJSON(w, http.StatusOK, animation, logger)
}

func (h *PipelineHandler) Publish(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Publish"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	productionID, err := parseUintParam(r, "productionID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.PublishRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Publish(r.Context(), user, productionID, &req)
	if err != nil {
		logger.Error("Error publishing in service", slog.Any("error", err), slog.Uint64("production_id", uint64(productionID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Production published",
		slog.Uint64("production_id", uint64(productionID)),
		slog.Int("platforms", resp.PublicationCount),
	)
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

func (h *PipelineHandler) GetPipelineStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPipelineStatus"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	productionID, err := parseUintParam(r, "productionID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	status, err := h.service.GetPipelineStatus(r.Context(), user, productionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, status, logger)
}

func (h *PipelineHandler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListPlatforms"))

	platforms, err := h.service.ListPlatforms(r.Context())
	if err != nil {
		logger.Error("Error listing platforms in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, platforms, logger)
}
