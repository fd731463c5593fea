package handlers

import (
	"log/slog"
	"net/http"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

type AuthHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(s service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{service: s, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Register"))

	var req model.RegisterRequest
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

	token, err := h.service.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Error registering user in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User registered", slog.Uint64("user_id", uint64(token.User.ID)))
	webutil.RespondWithJSON(w, http.StatusCreated, token, logger)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Login"))

	var req model.LoginRequest
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

	token, err := h.service.Login(r.Context(), &req)
	if err != nil {
		logger.Warn("Login failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, token, logger)
}

func (h *AuthHandler) GuestLogin(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GuestLogin"))

	token, err := h.service.GuestLogin(r.Context())
	if err != nil {
		logger.Error("Error creating guest session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, token, logger)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Me"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, user.ToResponse(), logger)
}
