package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/on-their-footsteps/backend/internal/model"
)

// parseUintParam reads a numeric chi URL parameter.
func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, model.NewAppError("INVALID_ID", "معرّف غير صالح.", name, model.ErrInvalidInput)
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
