package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

func newCharacterService(db *gorm.DB, c *cache.Cache) CharacterService {
	return NewCharacterService(db,
		repository.NewGormCharacterRepository(),
		repository.NewGormTeamRepository(),
		c)
}

func Test_characterService_GetCharacter_CountsCachedViews(t *testing.T) {
	db := setupTestDB(t)
	character := model.Character{Name: "Umar", ArabicName: "عمر", IsActive: true}
	require.NoError(t, db.Create(&character).Error)
	svc := newCharacterService(db, newTestCache())
	ctx := context.Background()

	_, err := svc.GetCharacter(ctx, character.ID)
	require.NoError(t, err)
	// Second read is served from cache but must still count the view.
	_, err = svc.GetCharacter(ctx, character.ID)
	require.NoError(t, err)

	var stored model.Character
	require.NoError(t, db.First(&stored, character.ID).Error)
	assert.Equal(t, 2, stored.ViewsCount)
}

func Test_characterService_ListCharacters_CachedPage(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&model.Character{Name: "a", ArabicName: "a", Slug: "a", IsActive: true}).Error)
	c := newTestCache()
	svc := newCharacterService(db, c)
	ctx := context.Background()

	first, err := svc.ListCharacters(ctx, model.CharacterListQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Total)

	// A row added behind the cache stays invisible until invalidation.
	require.NoError(t, db.Create(&model.Character{Name: "b", ArabicName: "b", Slug: "b", IsActive: true}).Error)
	second, err := svc.ListCharacters(ctx, model.CharacterListQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Total)

	c.InvalidateCharacters()
	third, err := svc.ListCharacters(ctx, model.CharacterListQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.Total)
}
