package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	GuestLogin(ctx context.Context) (*model.TokenResponse, error)
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	cfg      config.AuthConfig
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{db: db, userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.userRepo.FindByEmail(ctx, s.db, req.Email); err == nil {
		return nil, model.NewAppError("EMAIL_TAKEN", "البريد الإلكتروني مسجل بالفعل.", "email", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInternalServer
	}
	if _, err := s.userRepo.FindByUsername(ctx, s.db, req.Username); err == nil {
		return nil, model.NewAppError("USERNAME_TAKEN", "اسم المستخدم غير متاح.", "username", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInternalServer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Error hashing password", "error", err)
		return nil, model.ErrInternalServer
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: string(hash),
		IsActive:       true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err != nil {
		logger.Error("Transaction failed for Register", "error", err)
		return nil, model.ErrInternalServer
	}

	return s.tokenResponse(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, model.ErrInternalServer
	}
	if !user.IsActive {
		return nil, model.NewAppError("ACCOUNT_DISABLED", "الحساب معطل.", "", model.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	now := time.Now()
	_ = s.userRepo.Update(ctx, s.db, user.ID, map[string]interface{}{"last_active": now})

	return s.tokenResponse(ctx, user)
}

// GuestLogin creates a throwaway account so learners can try the app without
// registering. Guest accounts carry a random unusable password.
func (s *authService) GuestLogin(ctx context.Context) (*model.TokenResponse, error) {
	logger := middleware.GetLogger(ctx)

	suffix := uuid.NewString()[:8]
	user := &model.User{
		Username: "guest_" + suffix,
		Email:    fmt.Sprintf("guest_%s@guest.local", suffix),
		FullName: "زائر",
		IsActive: true,
		IsGuest:  true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.Create(ctx, tx, user)
	})
	if err != nil {
		logger.Error("Transaction failed for GuestLogin", "error", err)
		return nil, model.ErrInternalServer
	}
	return s.tokenResponse(ctx, user)
}

// Authenticate verifies a bearer token and loads the user it names.
// Implements middleware.Authenticator.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, model.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, model.ErrUnauthorized
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, model.ErrUnauthorized
	}

	user, err := s.userRepo.FindByID(ctx, s.db, uint(userID))
	if err != nil {
		return nil, model.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, model.ErrUnauthorized
	}
	return user, nil
}

func (s *authService) tokenResponse(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	logger := middleware.GetLogger(ctx)

	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"exp": time.Now().Add(s.cfg.TokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		logger.Error("Error signing token", "error", err, "user_id", user.ID)
		return nil, model.ErrInternalServer
	}

	return &model.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		User:        user.ToResponse(),
	}, nil
}

func invalidCredentials() error {
	return model.NewAppError("INVALID_CREDENTIALS", "البريد الإلكتروني أو كلمة المرور غير صحيحة.", "", model.ErrUnauthorized)
}
