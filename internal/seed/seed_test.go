package seed

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

func setupSeedDB(t *testing.T) *gorm.DB {
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

func TestRun_PopulatesReferenceData(t *testing.T) {
	db := setupSeedDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, Run(db, log))

	var levels int64
	require.NoError(t, db.Model(&model.Level{}).Count(&levels).Error)
	assert.Equal(t, int64(5), levels)

	var roles []model.Role
	require.NoError(t, db.Find(&roles).Error)
	require.NotEmpty(t, roles)
	byName := map[string]model.Role{}
	for _, r := range roles {
		byName[r.Name] = r
	}
	manager, ok := byName["content_manager"]
	require.True(t, ok)
	assert.True(t, manager.HasPermission(model.PermPublishContent))
	writer, ok := byName["writer"]
	require.True(t, ok)
	assert.True(t, writer.HasPermission(model.PermCreateScript))
	assert.False(t, writer.HasPermission(model.PermPublishContent))

	var platforms int64
	require.NoError(t, db.Model(&model.PublishingPlatform{}).Count(&platforms).Error)
	assert.Equal(t, int64(3), platforms)

	var lessons int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	assert.Greater(t, lessons, int64(0))
}

func TestRun_Idempotent(t *testing.T) {
	db := setupSeedDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, Run(db, log))
	require.NoError(t, Run(db, log))

	var levels int64
	require.NoError(t, db.Model(&model.Level{}).Count(&levels).Error)
	assert.Equal(t, int64(5), levels)

	var companions int64
	require.NoError(t, db.Model(&model.CompanionCharacter{}).Count(&companions).Error)
	assert.Equal(t, int64(3), companions)
}
