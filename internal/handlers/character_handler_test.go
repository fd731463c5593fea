package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
	"github.com/on-their-footsteps/backend/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(db))
	return db
}

func newCharacterRouter(t *testing.T, db *gorm.DB, actor *model.User) *chi.Mux {
	t.Helper()
	svc := service.NewCharacterService(db,
		repository.NewGormCharacterRepository(),
		repository.NewGormTeamRepository(),
		cache.New(100, time.Minute))
	h := NewCharacterHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	if actor != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), actor)))
			})
		})
	}
	r.Get("/characters", h.ListCharacters)
	r.Get("/characters/{characterID}", h.GetCharacter)
	r.Post("/characters", h.CreateCharacter)
	return r
}

func TestCharacterHandler_GetCharacter(t *testing.T) {
	db := setupHandlerDB(t)
	character := model.Character{Name: "Umar ibn al-Khattab", ArabicName: "عمر بن الخطاب", IsActive: true}
	require.NoError(t, db.Create(&character).Error)

	r := newCharacterRouter(t, db, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "عمر بن الخطاب", got.ArabicName)
}

func TestCharacterHandler_GetCharacter_NotFound(t *testing.T) {
	db := setupHandlerDB(t)
	r := newCharacterRouter(t, db, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCharacterHandler_GetCharacter_BadID(t *testing.T) {
	db := setupHandlerDB(t)
	r := newCharacterRouter(t, db, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_ID", body.Error.Code)
}

func TestCharacterHandler_ListCharacters_Pagination(t *testing.T) {
	db := setupHandlerDB(t)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&model.Character{Name: name, ArabicName: name, Slug: name, IsActive: true}).Error)
	}
	r := newCharacterRouter(t, db, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters?page=1&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var page service.CharacterPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Characters, 2)
	assert.Equal(t, 2, page.Limit)
}

func TestCharacterHandler_CreateCharacter_AsSuperuser(t *testing.T) {
	db := setupHandlerDB(t)
	admin := &model.User{Username: "admin", Email: "admin@example.com", IsActive: true, IsSuperuser: true}
	require.NoError(t, db.Create(admin).Error)
	r := newCharacterRouter(t, db, admin)

	payload := bytes.NewBufferString(`{"name":"Salahuddin","arabic_name":"صلاح الدين"}`)
	req := httptest.NewRequest(http.MethodPost, "/characters", payload)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got model.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Salahuddin", got.Name)
	assert.Equal(t, "salahuddin", got.Slug)
}

func TestCharacterHandler_CreateCharacter_ValidationError(t *testing.T) {
	db := setupHandlerDB(t)
	admin := &model.User{Username: "admin", Email: "admin@example.com", IsActive: true, IsSuperuser: true}
	require.NoError(t, db.Create(admin).Error)
	r := newCharacterRouter(t, db, admin)

	// arabic_name is required.
	payload := bytes.NewBufferString(`{"name":"Salahuddin"}`)
	req := httptest.NewRequest(http.MethodPost, "/characters", payload)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "arabic_name", body.Error.Field)
}

func TestCharacterHandler_CreateCharacter_Unauthenticated(t *testing.T) {
	db := setupHandlerDB(t)
	r := newCharacterRouter(t, db, nil)

	payload := bytes.NewBufferString(`{"name":"x","arabic_name":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/characters", payload)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
