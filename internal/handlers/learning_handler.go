package handlers

import (
	"log/slog"
	"net/http"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

type LearningHandler struct {
	service service.LearningService
	logger  *slog.Logger
}

func NewLearningHandler(s service.LearningService, logger *slog.Logger) *LearningHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LearningHandler{service: s, logger: logger}
}

func (h *LearningHandler) ListPaths(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListPaths"))

	paths, err := h.service.ListPaths(r.Context())
	if err != nil {
		logger.Error("Error listing paths in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, paths, logger)
}

func (h *LearningHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListLessons"))

	pathID, err := parseUintParam(r, "pathID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	lessons, err := h.service.ListLessons(r.Context(), pathID)
	if err != nil {
		logger.Warn("Error listing lessons in service", slog.Any("error", err), slog.Uint64("path_id", uint64(pathID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, lessons, logger)
}

func (h *LearningHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetLesson"))

	lessonID, err := parseUintParam(r, "lessonID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), lessonID)
	if err != nil {
		logger.Warn("Error getting lesson in service", slog.Any("error", err), slog.Uint64("lesson_id", uint64(lessonID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, lesson, logger)
}

func (h *LearningHandler) ListCompanions(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListCompanions"))

	companions, err := h.service.ListCompanions(r.Context())
	if err != nil {
		logger.Error("Error listing companions in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, companions, logger)
}

func (h *LearningHandler) SelectCompanion(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SelectCompanion"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	companionID, err := parseUintParam(r, "companionID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.SelectCompanion(r.Context(), user, companionID); err != nil {
		logger.Warn("Error selecting companion in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.MessageResponse{Message: "تم اختيار الرفيق."}, logger)
}

type selectPathRequest struct {
	Path string `json:"path" validate:"required,max=100"`
}

func (h *LearningHandler) SelectPath(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SelectPath"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req selectPathRequest
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

	if err := h.service.SelectPath(r.Context(), user, req.Path); err != nil {
		logger.Warn("Error selecting path in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.MessageResponse{Message: "تم اختيار المسار."}, logger)
}
