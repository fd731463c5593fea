package repository

import (
	"fmt"
	"log/slog"
	"time"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/model"
)

// NewDB opens the configured database and runs migrations. SQLite is the
// default for local development, Postgres for deployed environments.
func NewDB(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	gormLogger := slogGorm.New(
		slogGorm.WithHandler(logger.Handler()),
		slogGorm.WithSlowThreshold(200*time.Millisecond),
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("repository.NewDB: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("repository.NewDB: open: %w", err)
	}

	if cfg.Driver != "postgres" {
		// SQLite serializes writes; a single connection avoids "database is
		// locked" errors under concurrent handlers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("repository.NewDB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		db.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every domain model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Level{},
		&model.User{},
		&model.CompanionCharacter{},
		&model.Character{},
		&model.LearningPath{},
		&model.Lesson{},
		&model.UserLessonProgress{},
		&model.UserProgress{},
		&model.Role{},
		&model.TeamMember{},
		&model.ContentProduction{},
		&model.Script{},
		&model.Illustration{},
		&model.VoiceRecording{},
		&model.Animation{},
		&model.PublishingPlatform{},
		&model.Publication{},
	)
	if err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}
	return nil
}
