package handlers

import (
	"log/slog"
	"net/http"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/service"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

type CharacterHandler struct {
	service service.CharacterService
	logger  *slog.Logger
}

func NewCharacterHandler(s service.CharacterService, logger *slog.Logger) *CharacterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CharacterHandler{service: s, logger: logger}
}

func (h *CharacterHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListCharacters"))

	q := model.CharacterListQuery{
		Category: r.URL.Query().Get("category"),
		Era:      r.URL.Query().Get("era"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 20),
	}

	page, err := h.service.ListCharacters(r.Context(), q)
	if err != nil {
		logger.Error("Error listing characters in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, page, logger)
}

func (h *CharacterHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCharacter"))

	characterID, err := parseUintParam(r, "characterID")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	character, err := h.service.GetCharacter(r.Context(), characterID)
	if err != nil {
		logger.Warn("Error getting character in service", slog.Any("error", err), slog.Uint64("character_id", uint64(characterID)))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, character, logger)
}

func (h *CharacterHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateCharacter"))

	user, err := middleware.GetUser(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateCharacterRequest
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

	character, err := h.service.CreateCharacter(r.Context(), user, &req)
	if err != nil {
		logger.Error("Error creating character in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Character created", slog.Uint64("character_id", uint64(character.ID)))
	webutil.RespondWithJSON(w, http.StatusCreated, character, logger)
}
