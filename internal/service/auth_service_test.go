package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

func newAuthService(db *gorm.DB) AuthService {
	return NewAuthService(db, repository.NewGormUserRepository(), config.AuthConfig{
		SecretKey:   "test-secret",
		TokenExpiry: time.Hour,
	})
}

func Test_authService_RegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "fatima",
		Email:    "fatima@example.com",
		Password: "correct-horse",
		FullName: "فاطمة",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", registered.TokenType)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "fatima", registered.User.Username)
	assert.False(t, registered.User.IsGuest)

	loggedIn, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "fatima@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	user, err := svc.Authenticate(ctx, loggedIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)
	assert.Equal(t, "fatima", user.Username)
}

func Test_authService_Login_WrongPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "omar",
		Email:    "omar@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{
		Email:    "omar@example.com",
		Password: "wrong-horse",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func Test_authService_Login_UnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	// Unknown email and wrong password must be indistinguishable.
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func Test_authService_Register_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "first",
		Email:    "taken@example.com",
		Password: "password-one",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "second",
		Email:    "taken@example.com",
		Password: "password-two",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func Test_authService_Register_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "taken",
		Email:    "a@example.com",
		Password: "password-one",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "taken",
		Email:    "b@example.com",
		Password: "password-two",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func Test_authService_GuestLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	resp, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.User.IsGuest)
	assert.True(t, strings.HasPrefix(resp.User.Username, "guest_"))

	user, err := svc.Authenticate(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func Test_authService_Authenticate_InvalidToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func Test_authService_Authenticate_InactiveUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "dormant",
		Email:    "dormant@example.com",
		Password: "password-one",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", registered.User.ID).
		Update("is_active", false).Error)

	_, err = svc.Authenticate(ctx, registered.AccessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
