package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-their-footsteps/backend/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"invalid input", model.ErrInvalidInput, http.StatusBadRequest},
		{"conflict", model.ErrConflict, http.StatusConflict},
		{"forbidden", model.ErrForbidden, http.StatusForbidden},
		{"unauthorized", model.ErrUnauthorized, http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{
			"wrapped sentinel",
			fmt.Errorf("gormUserRepository.FindByID: %w", model.ErrNotFound),
			http.StatusNotFound,
		},
		{
			"app error carries its sentinel",
			model.NewAppError("EMAIL_TAKEN", "البريد الإلكتروني مستخدم بالفعل.", "email", model.ErrConflict),
			http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestHandleError_AppErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	err := model.NewAppError("PERMISSION_DENIED", "ليس لديك الصلاحية للقيام بهذا الإجراء.", "", model.ErrForbidden)

	HandleError(rec, discardLogger(), err)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PERMISSION_DENIED", body.Error.Code)
	assert.Equal(t, "ليس لديك الصلاحية للقيام بهذا الإجراء.", body.Error.Message)
}

func TestHandleError_InternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, discardLogger(), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "connection refused")
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=10"`
	}

	err := ValidateStruct(payload{Email: "ok@example.com", Name: "short"})
	assert.NoError(t, err)

	err = ValidateStruct(payload{Email: "not-an-email", Name: "short"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Detail.Code)
	// Field names come from JSON tags.
	assert.Equal(t, "email", appErr.Detail.Field)
}
