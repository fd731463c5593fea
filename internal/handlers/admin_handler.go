package handlers

import (
	"log/slog"
	"net/http"

	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

// AdminHandler serves the superuser-only management surface. RequireAdmin
// runs in front of every route here, so handlers skip the role check.
type AdminHandler struct {
	service service.AdminService
	logger  *slog.Logger
}

func NewAdminHandler(s service.AdminService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: s, logger: logger}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Stats"))

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		logger.Error("Error collecting admin stats in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, stats, logger)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListUsers"))

	page, err := h.service.ListUsers(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		logger.Error("Error listing users in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, page, logger)
}

func (h *AdminHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchUser"))

	userID, err := parseUintParam(r, "userID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var patch model.AdminUserPatch
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

	user, err := h.service.PatchUser(r.Context(), userID, &patch)
	if err != nil {
		logger.Warn("Error patching user in service", slog.Any("error", err), slog.Uint64("user_id", uint64(userID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User patched", slog.Uint64("user_id", uint64(userID)))
	webutil.RespondWithJSON(w, http.StatusOK, user.ToResponse(), logger)
}

func (h *AdminHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ResetUserPassword"))

	userID, err := parseUintParam(r, "userID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.ResetUserPassword(r.Context(), userID)
	if err != nil {
		logger.Warn("Error resetting password in service", slog.Any("error", err), slog.Uint64("user_id", uint64(userID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User password reset", slog.Uint64("user_id", uint64(userID)))
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

func (h *AdminHandler) PatchCharacter(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchCharacter"))

	characterID, err := parseUintParam(r, "characterID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var patch model.AdminCharacterPatch
	if err := webutil.DecodeJSONBody(r, &patch); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "صيغة الطلب غير صحيحة.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	character, err := h.service.PatchCharacter(r.Context(), characterID, &patch)
	if err != nil {
		logger.Warn("Error patching character in service", slog.Any("error", err), slog.Uint64("character_id", uint64(characterID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, character, logger)
}

func (h *AdminHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteCharacter"))

	characterID, err := parseUintParam(r, "characterID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if err := h.service.DeleteCharacter(r.Context(), characterID); err != nil {
		logger.Warn("Error deleting character in service", slog.Any("error", err), slog.Uint64("character_id", uint64(characterID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Character deleted", slog.Uint64("character_id", uint64(characterID)))
	w.WriteHeader(http.StatusNoContent)
}

type addTeamMemberRequest struct {
	UserID     uint   `json:"user_id" validate:"required"`
	Role       string `json:"role" validate:"required,max=100"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

func (h *AdminHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "AddTeamMember"))

	var req addTeamMemberRequest
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

	member, err := h.service.AddTeamMember(r.Context(), req.UserID, req.Role, req.Department)
	if err != nil {
		logger.Warn("Error adding team member in service", slog.Any("error", err), slog.Uint64("user_id", uint64(req.UserID)))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Team member added", slog.Uint64("user_id", uint64(req.UserID)), slog.String("role", req.Role))
	webutil.RespondWithJSON(w, http.StatusCreated, member, logger)
}
