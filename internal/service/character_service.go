package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

// CharacterPage is the cached list projection.
type CharacterPage struct {
	Characters []*model.Character `json:"characters"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

type CharacterService interface {
	ListCharacters(ctx context.Context, q model.CharacterListQuery) (*CharacterPage, error)
	GetCharacter(ctx context.Context, characterID uint) (*model.Character, error)
	CreateCharacter(ctx context.Context, actor *model.User, req *model.CreateCharacterRequest) (*model.Character, error)
}

type characterService struct {
	db            *gorm.DB
	characterRepo repository.CharacterRepository
	teamRepo      repository.TeamRepository
	cache         *cache.Cache
}

func NewCharacterService(db *gorm.DB, characterRepo repository.CharacterRepository, teamRepo repository.TeamRepository, c *cache.Cache) CharacterService {
	return &characterService{db: db, characterRepo: characterRepo, teamRepo: teamRepo, cache: c}
}

func (s *characterService) ListCharacters(ctx context.Context, q model.CharacterListQuery) (*CharacterPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	key := cache.CharacterListKey(q.Category, q.Era, q.Page, q.Limit)
	if cached, ok := s.cache.Get(key); ok {
		if page, ok := cached.(*CharacterPage); ok {
			return page, nil
		}
	}

	characters, total, err := s.characterRepo.List(ctx, s.db, q)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	page := &CharacterPage{Characters: characters, Total: total, Page: q.Page, Limit: q.Limit}
	s.cache.Set(key, page)
	return page, nil
}

func (s *characterService) GetCharacter(ctx context.Context, characterID uint) (*model.Character, error) {
	key := cache.CharacterDetailKey(characterID)
	if cached, ok := s.cache.Get(key); ok {
		if character, ok := cached.(*model.Character); ok {
			// Every view counts, even ones served from cache. Best
			// effort; a failure never breaks the read.
			_ = s.characterRepo.IncrementViewCount(ctx, s.db, characterID)
			return character, nil
		}
	}

	character, err := s.characterRepo.FindByID(ctx, s.db, characterID)
	if err != nil {
		return nil, err
	}
	_ = s.characterRepo.IncrementViewCount(ctx, s.db, characterID)

	s.cache.Set(key, character)
	return character, nil
}

func (s *characterService) CreateCharacter(ctx context.Context, actor *model.User, req *model.CreateCharacterRequest) (*model.Character, error) {
	logger := middleware.GetLogger(ctx)

	if err := requirePermission(ctx, s.db, s.teamRepo, actor, model.PermCreateCharacter); err != nil {
		return nil, err
	}

	character := &model.Character{
		Name:        req.Name,
		ArabicName:  req.ArabicName,
		EnglishName: req.EnglishName,
		Title:       req.Title,
		Description: req.Description,
		Era:         req.Era,
		Category:    req.Category,
		Slug:        req.Slug,
		FullStory:   req.FullStory,
		IsActive:    true,
	}
	if character.Slug == "" {
		character.Slug = strings.ToLower(strings.ReplaceAll(req.Name, " ", "-"))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.characterRepo.Create(ctx, tx, character)
	})
	if err != nil {
		logger.Error("Transaction failed for CreateCharacter", "error", err)
		return nil, model.ErrInternalServer
	}

	s.cache.InvalidateCharacters()
	return character, nil
}

// requirePermission loads the actor's team role and checks one permission.
// Superusers bypass the check; non-members are forbidden.
func requirePermission(ctx context.Context, db *gorm.DB, teamRepo repository.TeamRepository, actor *model.User, perm string) error {
	if actor == nil {
		return model.ErrUnauthorized
	}
	if actor.IsSuperuser {
		return nil
	}
	member, err := teamRepo.FindMemberByUserID(ctx, db, actor.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("NOT_TEAM_MEMBER", "ليست لديك صلاحية لهذا الإجراء.", "", model.ErrForbidden)
		}
		return model.ErrInternalServer
	}
	if !member.Role.HasPermission(perm) {
		return model.NewAppError("PERMISSION_DENIED", "ليست لديك صلاحية لهذا الإجراء.", "", model.ErrForbidden)
	}
	return nil
}
