package handlers

import (
	"log/slog"
	"net/http"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

type ProgressHandler struct {
	service service.ProgressService
	logger  *slog.Logger
}

func NewProgressHandler(s service.ProgressService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{service: s, logger: logger}
}

func (h *ProgressHandler) SubmitLessonProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SubmitLessonProgress"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	lessonID, err := parseUintParam(r, "lessonID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var patch model.LessonProgressPatch
	if err := webutil.DecodeJSONBody(r, &patch); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(patch); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	result, err := h.service.SubmitLessonProgress(r.Context(), user, lessonID, &patch)
	if err != nil {
		logger.Error("Error submitting lesson progress in service",
			slog.Any("error", err),
			slog.Uint64("user_id", uint64(user.ID)),
			slog.Uint64("lesson_id", uint64(lessonID)),
		)
		webutil.HandleError(w, logger, err)
		return
	}

	if result.XPAwarded > 0 {
		logger.Info("Lesson completed",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.Uint64("lesson_id", uint64(lessonID)),
			slog.Int("xp_awarded", result.XPAwarded),
			slog.Bool("leveled_up", result.LeveledUp),
		)
	}
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}

func (h *ProgressHandler) ListLessonProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListLessonProgress"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	rows, err := h.service.ListLessonProgress(r.Context(), user)
	if err != nil {
		logger.Error("Error listing lesson progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, rows, logger)
}

func (h *ProgressHandler) SkipQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SkipQuiz"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	lessonID, err := parseUintParam(r, "lessonID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.SkipQuizRequest
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

	resp, err := h.service.SkipQuiz(r.Context(), user, lessonID, &req)
	if err != nil {
		logger.Warn("Error in skip quiz service", slog.Any("error", err), slog.Uint64("lesson_id", uint64(lessonID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

type storyProgressRequest struct {
	Chapter int `json:"chapter" validate:"min=0"`
}

func (h *ProgressHandler) UpdateStoryProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UpdateStoryProgress"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	characterID, err := parseUintParam(r, "characterID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req storyProgressRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	progress, err := h.service.UpdateStoryProgress(r.Context(), user, characterID, req.Chapter)
	if err != nil {
		logger.Error("Error updating story progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, progress, logger)
}

func (h *ProgressHandler) ListStoryProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListStoryProgress"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	rows, err := h.service.ListStoryProgress(r.Context(), user)
	if err != nil {
		logger.Error("Error listing story progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, rows, logger)
}
