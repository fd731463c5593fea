package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

func newTestCache() *cache.Cache {
	return cache.New(100, time.Minute)
}

func seedLevels(t *testing.T, db *gorm.DB) []model.Level {
	t.Helper()
	levels := []model.Level{
		{Name: "Beginner", XPRequired: 0, SortOrder: 1},
		{Name: "Explorer", XPRequired: 30, SortOrder: 2},
		{Name: "Seeker", XPRequired: 100, SortOrder: 3},
	}
	require.NoError(t, db.Create(&levels).Error)
	return levels
}

func seedLessons(t *testing.T, db *gorm.DB, count int, withQuiz bool) (model.LearningPath, []model.Lesson) {
	t.Helper()
	path := model.LearningPath{Name: "Prophets", ArabicName: "الأنبياء", IsActive: true}
	require.NoError(t, db.Create(&path).Error)

	content := datatypes.JSON([]byte(`{"sections":[]}`))
	lessons := make([]model.Lesson, 0, count)
	for i := 1; i <= count; i++ {
		lessons = append(lessons, model.Lesson{
			PathID:    path.ID,
			Title:     "Lesson",
			Content:   content,
			HasQuiz:   withQuiz,
			SortOrder: i,
			IsActive:  true,
		})
	}
	require.NoError(t, db.Create(&lessons).Error)
	return path, lessons
}

func seedUser(t *testing.T, db *gorm.DB, levelID *uint) *model.User {
	t.Helper()
	user := &model.User{
		Username: "learner",
		Email:    "learner@example.com",
		IsActive: true,
		LevelID:  levelID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newProgressService(db *gorm.DB, c *cache.Cache) ProgressService {
	return NewProgressService(
		db,
		repository.NewGormProgressRepository(),
		repository.NewGormLearningRepository(),
		repository.NewGormUserRepository(),
		c,
	)
}

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func Test_progressService_SubmitLessonProgress_XPAwards(t *testing.T) {
	tests := []struct {
		name          string
		score         *float64
		wantXP        int
		wantCompleted bool
	}{
		{name: "no score does not complete", score: nil, wantXP: 0, wantCompleted: false},
		{name: "passing score earns base XP", score: float64Ptr(75), wantXP: 10, wantCompleted: true},
		{name: "high score earns bonus XP", score: float64Ptr(95), wantXP: 15, wantCompleted: true},
		{name: "exactly the bonus mark earns bonus XP", score: float64Ptr(90), wantXP: 15, wantCompleted: true},
		{name: "failing score does not complete", score: float64Ptr(40), wantXP: 0, wantCompleted: false},
		{name: "exactly passing completes", score: float64Ptr(70), wantXP: 10, wantCompleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedLevels(t, db)
			_, lessons := seedLessons(t, db, 1, true)
			user := seedUser(t, db, nil)
			svc := newProgressService(db, newTestCache())

			result, err := svc.SubmitLessonProgress(context.Background(), user, lessons[0].ID, &model.LessonProgressPatch{
				Score: tt.score,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantXP, result.XPAwarded)
			assert.Equal(t, tt.wantCompleted, result.Progress.IsCompleted)
			assert.Equal(t, tt.wantXP, result.CurrentXP)

			var stored model.User
			require.NoError(t, db.First(&stored, user.ID).Error)
			assert.Equal(t, tt.wantXP, stored.CurrentXP)
		})
	}
}

func Test_progressService_SubmitLessonProgress_XPIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	_, lessons := seedLessons(t, db, 1, true)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())
	ctx := context.Background()

	first, err := svc.SubmitLessonProgress(ctx, user, lessons[0].ID, &model.LessonProgressPatch{Score: float64Ptr(80)})
	require.NoError(t, err)
	assert.Equal(t, 10, first.XPAwarded)

	// Resubmitting the same completed lesson must not grant XP again, even
	// with a better score.
	second, err := svc.SubmitLessonProgress(ctx, user, lessons[0].ID, &model.LessonProgressPatch{Score: float64Ptr(100)})
	require.NoError(t, err)
	assert.Equal(t, 0, second.XPAwarded)
	assert.Equal(t, 10, second.CurrentXP)

	var count int64
	require.NoError(t, db.Model(&model.UserLessonProgress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "one row per (user, lesson)")
}

func Test_progressService_SubmitLessonProgress_LevelUpSingleStep(t *testing.T) {
	db := setupTestDB(t)
	levels := seedLevels(t, db)
	_, lessons := seedLessons(t, db, 3, true)
	user := seedUser(t, db, &levels[0].ID)
	user.CurrentXP = 20
	require.NoError(t, db.Model(user).Update("current_xp", 20).Error)
	svc := newProgressService(db, newTestCache())

	// 20 + 15 crosses the Explorer threshold (30) but not Seeker (100).
	result, err := svc.SubmitLessonProgress(context.Background(), user, lessons[0].ID, &model.LessonProgressPatch{
		Score: float64Ptr(92),
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	require.NotNil(t, result.LevelID)
	assert.Equal(t, levels[1].ID, *result.LevelID)
	assert.Equal(t, 35, result.CurrentXP)
}

func Test_progressService_SubmitLessonProgress_NoLevelSkipping(t *testing.T) {
	db := setupTestDB(t)
	levels := seedLevels(t, db)
	_, lessons := seedLessons(t, db, 1, true)
	user := seedUser(t, db, &levels[0].ID)
	// Enough XP to clear both remaining thresholds at once.
	require.NoError(t, db.Model(user).Update("current_xp", 150).Error)
	user.CurrentXP = 150
	svc := newProgressService(db, newTestCache())

	result, err := svc.SubmitLessonProgress(context.Background(), user, lessons[0].ID, &model.LessonProgressPatch{
		Score: float64Ptr(85),
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	require.NotNil(t, result.LevelID)
	assert.Equal(t, levels[1].ID, *result.LevelID, "promotion is one level at a time")
}

func Test_progressService_SubmitLessonProgress_LessonNotFound(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())

	_, err := svc.SubmitLessonProgress(context.Background(), user, 999, &model.LessonProgressPatch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func Test_progressService_SkipQuiz(t *testing.T) {
	tests := []struct {
		name         string
		attempts     int
		wantCanSkip  bool
		wantUnlocked int
	}{
		{name: "two attempts is not enough", attempts: 2, wantCanSkip: false, wantUnlocked: 0},
		{name: "three attempts unlocks the next two lessons", attempts: 3, wantCanSkip: true, wantUnlocked: 2},
		{name: "more than three attempts still unlocks", attempts: 5, wantCanSkip: true, wantUnlocked: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedLevels(t, db)
			_, lessons := seedLessons(t, db, 4, true)
			user := seedUser(t, db, nil)
			svc := newProgressService(db, newTestCache())

			resp, err := svc.SkipQuiz(context.Background(), user, lessons[0].ID, &model.SkipQuizRequest{
				QuizAttempts: tt.attempts,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCanSkip, resp.CanSkip)
			assert.Len(t, resp.UnlockedLessons, tt.wantUnlocked)
			assert.NotEmpty(t, resp.Message)

			if tt.wantCanSkip {
				assert.Equal(t, []uint{lessons[1].ID, lessons[2].ID}, resp.UnlockedLessons)
				var rows []model.UserLessonProgress
				require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
				assert.Len(t, rows, 2)
				for _, row := range rows {
					assert.False(t, row.IsCompleted, "unlocked lessons are not completed")
				}
			}
		})
	}
}

func Test_progressService_SkipQuiz_FewerLessonsRemain(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	_, lessons := seedLessons(t, db, 2, true)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())

	resp, err := svc.SkipQuiz(context.Background(), user, lessons[0].ID, &model.SkipQuizRequest{QuizAttempts: 3})
	require.NoError(t, err)

	assert.True(t, resp.CanSkip)
	assert.Equal(t, []uint{lessons[1].ID}, resp.UnlockedLessons, "only one lesson left to unlock")
}

func Test_progressService_SkipQuiz_LessonWithoutQuiz(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	_, lessons := seedLessons(t, db, 2, false)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())

	_, err := svc.SkipQuiz(context.Background(), user, lessons[0].ID, &model.SkipQuizRequest{QuizAttempts: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func Test_progressService_SubmitLessonProgress_TimeSpentPatch(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	_, lessons := seedLessons(t, db, 1, false)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())

	result, err := svc.SubmitLessonProgress(context.Background(), user, lessons[0].ID, &model.LessonProgressPatch{
		TimeSpent: intPtr(420),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Progress.TimeSpent)
	assert.Equal(t, 420, *result.Progress.TimeSpent)
	assert.Nil(t, result.Progress.Score)
	// A score-less patch records time but never completes or pays XP.
	assert.False(t, result.Progress.IsCompleted)
	assert.Equal(t, 0, result.XPAwarded)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 0, stored.CurrentXP)
}

func Test_progressService_UpdateStoryProgress(t *testing.T) {
	db := setupTestDB(t)
	seedLevels(t, db)
	user := seedUser(t, db, nil)
	character := model.Character{Name: "Salahuddin", ArabicName: "صلاح الدين", IsActive: true}
	require.NoError(t, db.Create(&character).Error)
	svc := newProgressService(db, newTestCache())
	ctx := context.Background()

	progress, err := svc.UpdateStoryProgress(ctx, user, character.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.CurrentChapter)

	// Moving backwards is ignored.
	progress, err = svc.UpdateStoryProgress(ctx, user, character.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.CurrentChapter)
}

func Test_progressService_SubmitLessonProgress_AccumulatesAcrossLessons(t *testing.T) {
	db := setupTestDB(t)
	levels := seedLevels(t, db)
	_, lessons := seedLessons(t, db, 2, true)
	user := seedUser(t, db, nil)
	svc := newProgressService(db, newTestCache())
	ctx := context.Background()

	first, err := svc.SubmitLessonProgress(ctx, user, lessons[0].ID, &model.LessonProgressPatch{
		Score: float64Ptr(95),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, first.XPAwarded)
	assert.Equal(t, 15, first.CurrentXP)
	assert.False(t, first.LeveledUp)

	second, err := svc.SubmitLessonProgress(ctx, user, lessons[1].ID, &model.LessonProgressPatch{
		Score: float64Ptr(95),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, second.XPAwarded)
	assert.Equal(t, 30, second.CurrentXP)
	// 30 XP crosses the Explorer threshold exactly.
	assert.True(t, second.LeveledUp)
	require.NotNil(t, second.LevelID)
	assert.Equal(t, levels[1].ID, *second.LevelID)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 30, stored.CurrentXP)
	require.NotNil(t, stored.LevelID)
	assert.Equal(t, levels[1].ID, *stored.LevelID)
}
