package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

type LearningService interface {
	ListPaths(ctx context.Context) ([]*model.LearningPath, error)
	ListLessons(ctx context.Context, pathID uint) ([]model.LessonBrief, error)
	GetLesson(ctx context.Context, lessonID uint) (*model.Lesson, error)
	ListCompanions(ctx context.Context) ([]*model.CompanionCharacter, error)
	SelectCompanion(ctx context.Context, user *model.User, companionID uint) error
	SelectPath(ctx context.Context, user *model.User, pathName string) error
}

type learningService struct {
	db           *gorm.DB
	learningRepo repository.LearningRepository
	userRepo     repository.UserRepository
}

func NewLearningService(db *gorm.DB, learningRepo repository.LearningRepository, userRepo repository.UserRepository) LearningService {
	return &learningService{db: db, learningRepo: learningRepo, userRepo: userRepo}
}

func (s *learningService) ListPaths(ctx context.Context) ([]*model.LearningPath, error) {
	paths, err := s.learningRepo.ListPaths(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return paths, nil
}

// ListLessons returns the lightweight lesson listing for one path, without
// the lesson content payloads.
func (s *learningService) ListLessons(ctx context.Context, pathID uint) ([]model.LessonBrief, error) {
	if _, err := s.learningRepo.FindPathByID(ctx, s.db, pathID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PATH_NOT_FOUND", "مسار التعلم غير موجود.", "", model.ErrNotFound)
		}
		return nil, model.ErrInternalServer
	}

	lessons, err := s.learningRepo.ListLessonsByPath(ctx, s.db, pathID)
	if err != nil {
		return nil, model.ErrInternalServer
	}

	briefs := make([]model.LessonBrief, 0, len(lessons))
	for _, lesson := range lessons {
		brief := model.LessonBrief{
			ID:          lesson.ID,
			Title:       lesson.Title,
			ArabicTitle: lesson.ArabicTitle,
			Description: lesson.Description,
			Duration:    lesson.Duration,
			HasQuiz:     lesson.HasQuiz,
		}
		if lesson.Character != nil {
			brief.CharacterName = lesson.Character.Name
			brief.CharacterArabicName = lesson.Character.ArabicName
		}
		briefs = append(briefs, brief)
	}
	return briefs, nil
}

func (s *learningService) GetLesson(ctx context.Context, lessonID uint) (*model.Lesson, error) {
	lesson, err := s.learningRepo.FindLessonByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "الدرس غير موجود.", "", model.ErrNotFound)
		}
		return nil, model.ErrInternalServer
	}
	return lesson, nil
}

func (s *learningService) ListCompanions(ctx context.Context) ([]*model.CompanionCharacter, error) {
	companions, err := s.learningRepo.ListCompanions(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return companions, nil
}

func (s *learningService) SelectCompanion(ctx context.Context, user *model.User, companionID uint) error {
	if _, err := s.learningRepo.FindCompanionByID(ctx, s.db, companionID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("COMPANION_NOT_FOUND", "الشخصية المرافقة غير موجودة.", "", model.ErrNotFound)
		}
		return model.ErrInternalServer
	}
	err := s.userRepo.Update(ctx, s.db, user.ID, map[string]interface{}{
		"companion_character_id": companionID,
	})
	if err != nil {
		return model.ErrInternalServer
	}
	return nil
}

func (s *learningService) SelectPath(ctx context.Context, user *model.User, pathName string) error {
	if pathName == "" {
		return model.NewAppError("VALIDATION_ERROR", "اسم المسار مطلوب.", "path", model.ErrInvalidInput)
	}
	err := s.userRepo.Update(ctx, s.db, user.ID, map[string]interface{}{
		"selected_path": pathName,
	})
	if err != nil {
		return model.ErrInternalServer
	}
	return nil
}
