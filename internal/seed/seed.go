// Package seed loads the baseline reference data a fresh database needs:
// the level ladder, companion characters, learning paths with starter
// lessons, production roles and publishing platforms. Seeding is idempotent;
// rows are created only when their table is empty.
package seed

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/model"
)

func Run(db *gorm.DB, logger *slog.Logger) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"levels", seedLevels},
		{"companions", seedCompanions},
		{"learning paths", seedPaths},
		{"roles", seedRoles},
		{"platforms", seedPlatforms},
	}
	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("seed: %s: %w", step.name, err)
		}
		logger.Info("Seed step done", "step", step.name)
	}
	return nil
}

func tableEmpty(db *gorm.DB, m interface{}) (bool, error) {
	var count int64
	if err := db.Model(m).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func seedLevels(db *gorm.DB) error {
	empty, err := tableEmpty(db, &model.Level{})
	if err != nil || !empty {
		return err
	}
	levels := []model.Level{
		{Name: "مبتدئ", Description: "بداية الرحلة", XPRequired: 0, BadgeIcon: "seedling", Color: "#8BC34A", SortOrder: 1},
		{Name: "مستكشف", Description: "أكمل أولى الدروس", XPRequired: 30, BadgeIcon: "compass", Color: "#03A9F4", SortOrder: 2},
		{Name: "باحث", Description: "في منتصف الطريق", XPRequired: 100, BadgeIcon: "book", Color: "#3F51B5", SortOrder: 3},
		{Name: "عالِم", Description: "معرفة واسعة", XPRequired: 250, BadgeIcon: "graduation-cap", Color: "#9C27B0", SortOrder: 4},
		{Name: "حكيم", Description: "أتقن المسارات", XPRequired: 500, BadgeIcon: "star", Color: "#FFC107", SortOrder: 5},
	}
	return db.Create(&levels).Error
}

func seedCompanions(db *gorm.DB) error {
	empty, err := tableEmpty(db, &model.CompanionCharacter{})
	if err != nil || !empty {
		return err
	}
	companions := []model.CompanionCharacter{
		{Name: "Noora", ArabicName: "نورة", Description: "رفيقة فضولية تحب الأسئلة", IsActive: true},
		{Name: "Zayd", ArabicName: "زيد", Description: "رفيق شجاع يحب المغامرات", IsActive: true},
		{Name: "Layla", ArabicName: "ليلى", Description: "رفيقة حكيمة تحب القصص", IsActive: true},
	}
	return db.Create(&companions).Error
}

func seedPaths(db *gorm.DB) error {
	empty, err := tableEmpty(db, &model.LearningPath{})
	if err != nil || !empty {
		return err
	}

	paths := []model.LearningPath{
		{Name: "Prophets", ArabicName: "الأنبياء", Description: "قصص الأنبياء عليهم السلام", IsActive: true, SortOrder: 1},
		{Name: "Companions", ArabicName: "الصحابة", Description: "سير الصحابة رضوان الله عليهم", IsActive: true, SortOrder: 2},
		{Name: "Scholars", ArabicName: "العلماء", Description: "أعلام العلماء عبر العصور", IsActive: true, SortOrder: 3},
	}
	if err := db.Create(&paths).Error; err != nil {
		return err
	}

	lessonContent := datatypes.JSON([]byte(`{"sections":[{"type":"story","text":""}]}`))
	lessons := []model.Lesson{
		{PathID: paths[0].ID, Title: "The First Story", ArabicTitle: "القصة الأولى", Content: lessonContent, Duration: 10, HasQuiz: true, SortOrder: 1, IsActive: true},
		{PathID: paths[0].ID, Title: "The Second Story", ArabicTitle: "القصة الثانية", Content: lessonContent, Duration: 12, HasQuiz: true, SortOrder: 2, IsActive: true},
		{PathID: paths[0].ID, Title: "The Third Story", ArabicTitle: "القصة الثالثة", Content: lessonContent, Duration: 8, HasQuiz: false, SortOrder: 3, IsActive: true},
		{PathID: paths[1].ID, Title: "A Companion's Life", ArabicTitle: "حياة صحابي", Content: lessonContent, Duration: 15, HasQuiz: true, SortOrder: 1, IsActive: true},
	}
	return db.Create(&lessons).Error
}

func seedRoles(db *gorm.DB) error {
	empty, err := tableEmpty(db, &model.Role{})
	if err != nil || !empty {
		return err
	}
	roles := []model.Role{
		{
			Name:        "content_manager",
			Description: "Oversees the pipeline end to end",
			Permissions: permJSON(
				model.PermCreateCharacter, model.PermCreateScript, model.PermApproveScript,
				model.PermUploadIllustration, model.PermUploadVoice, model.PermUploadAnimation,
				model.PermApproveAnimation, model.PermPublishContent,
			),
			IsActive: true,
		},
		{Name: "writer", Description: "Writes and submits scripts", Permissions: permJSON(model.PermCreateScript), IsActive: true},
		{Name: "reviewer", Description: "Reviews and approves scripts", Permissions: permJSON(model.PermApproveScript), IsActive: true},
		{Name: "illustrator", Description: "Produces illustrations", Permissions: permJSON(model.PermUploadIllustration), IsActive: true},
		{Name: "voice_actor", Description: "Records narration", Permissions: permJSON(model.PermUploadVoice), IsActive: true},
		{Name: "animator", Description: "Produces animations", Permissions: permJSON(model.PermUploadAnimation), IsActive: true},
		{Name: "publisher", Description: "Publishes finished content", Permissions: permJSON(model.PermPublishContent), IsActive: true},
	}
	return db.Create(&roles).Error
}

func seedPlatforms(db *gorm.DB) error {
	empty, err := tableEmpty(db, &model.PublishingPlatform{})
	if err != nil || !empty {
		return err
	}
	platforms := []model.PublishingPlatform{
		{Name: "App", Description: "In-app library", PlatformType: "internal", IsActive: true},
		{Name: "YouTube", Description: "YouTube channel", PlatformType: "video", IsActive: true},
		{Name: "Instagram", Description: "Short-form clips", PlatformType: "social", IsActive: true},
	}
	return db.Create(&platforms).Error
}

func permJSON(perms ...string) datatypes.JSON {
	out, _ := json.Marshal(perms)
	return datatypes.JSON(out)
}
