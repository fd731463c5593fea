package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

func seedRole(t *testing.T, db *gorm.DB, name string, perms ...string) model.Role {
	t.Helper()
	raw, err := json.Marshal(perms)
	require.NoError(t, err)
	role := model.Role{Name: name, Permissions: datatypes.JSON(raw), IsActive: true}
	require.NoError(t, db.Create(&role).Error)
	return role
}

func seedMember(t *testing.T, db *gorm.DB, username string, role model.Role) (*model.User, model.TeamMember) {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	member := model.TeamMember{UserID: user.ID, RoleID: role.ID, IsActive: true}
	require.NoError(t, db.Create(&member).Error)
	return user, member
}

func seedPlatform(t *testing.T, db *gorm.DB, name string) model.PublishingPlatform {
	t.Helper()
	platform := model.PublishingPlatform{Name: name, PlatformType: "video", IsActive: true}
	require.NoError(t, db.Create(&platform).Error)
	return platform
}

func newPipelineService(db *gorm.DB) PipelineService {
	return NewPipelineService(db, repository.NewGormPipelineRepository(), repository.NewGormTeamRepository())
}

// pipelineFixture wires the common cast: a producer who opens productions,
// a writer, a reviewer and a publisher, each with exactly their own
// permission.
type pipelineFixture struct {
	db        *gorm.DB
	svc       PipelineService
	producer  *model.User
	writer    *model.User
	reviewer  *model.User
	publisher *model.User
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	db := setupTestDB(t)
	producerRole := seedRole(t, db, "producer", model.PermCreateCharacter)
	writerRole := seedRole(t, db, "writer", model.PermCreateScript)
	reviewerRole := seedRole(t, db, "reviewer", model.PermApproveScript)
	publisherRole := seedRole(t, db, "publisher", model.PermPublishContent)
	producer, _ := seedMember(t, db, "producer", producerRole)
	writer, _ := seedMember(t, db, "writer", writerRole)
	reviewer, _ := seedMember(t, db, "reviewer", reviewerRole)
	publisher, _ := seedMember(t, db, "publisher", publisherRole)

	return &pipelineFixture{
		db:        db,
		svc:       newPipelineService(db),
		producer:  producer,
		writer:    writer,
		reviewer:  reviewer,
		publisher: publisher,
	}
}

func (f *pipelineFixture) production(t *testing.T) *model.ContentProduction {
	t.Helper()
	production, err := f.svc.CreateProduction(context.Background(), f.producer, &model.CreateProductionRequest{
		Title: "The Conquest of Hearts",
	})
	require.NoError(t, err)
	return production
}

func (f *pipelineFixture) reload(t *testing.T, id uint) *model.ContentProduction {
	t.Helper()
	var production model.ContentProduction
	require.NoError(t, f.db.First(&production, id).Error)
	return &production
}

func Test_pipelineService_CreateProduction(t *testing.T) {
	f := newPipelineFixture(t)

	production := f.production(t)
	assert.Equal(t, model.StageIdea, production.CurrentStage)
	assert.Equal(t, model.StatusInProduction, production.OverallStatus)
	assert.Zero(t, production.CompletionPercentage)
	assert.Equal(t, "medium", production.Priority)
	assert.Equal(t, f.producer.ID, production.CreatedByID)
}

func Test_pipelineService_CreateProduction_Forbidden(t *testing.T) {
	f := newPipelineFixture(t)

	// Only CREATE_CHARACTER opens a production; the writer's CREATE_SCRIPT
	// is not enough.
	_, err := f.svc.CreateProduction(context.Background(), f.writer, &model.CreateProductionRequest{Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func Test_pipelineService_ScriptApprovalAdvancesProduction(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title:   "Episode One",
		Content: "In the footsteps of the righteous we walk",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScriptStatusDraft, script.Status)
	assert.Equal(t, 8, script.WordCount)

	reloaded := f.reload(t, production.ID)
	assert.Equal(t, model.StageScripting, reloaded.CurrentStage)
	require.NotNil(t, reloaded.ScriptID)
	assert.Equal(t, script.ID, *reloaded.ScriptID)

	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)

	approved, err := f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{Notes: "solid"})
	require.NoError(t, err)
	assert.Equal(t, model.ScriptStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	reloaded = f.reload(t, production.ID)
	assert.Equal(t, model.StageIllustration, reloaded.CurrentStage)
	assert.InDelta(t, 20.0, reloaded.CompletionPercentage, 0.001)
}

func Test_pipelineService_ApproveScript_RequiresPendingReview(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Draft", Content: "words",
	})
	require.NoError(t, err)

	_, err = f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func Test_pipelineService_ApproveScript_Forbidden(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Draft", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)

	// Writers cannot approve their own scripts.
	_, err = f.svc.ApproveScript(ctx, f.writer, script.ID, &model.ApproveScriptRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func Test_pipelineService_RejectScript(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Needs work", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)

	rejected, err := f.svc.RejectScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{Notes: "rework the opening"})
	require.NoError(t, err)
	assert.Equal(t, model.ScriptStatusRejected, rejected.Status)
	assert.Equal(t, "rework the opening", rejected.ApprovalNotes)

	// A rejected script can be resubmitted.
	resubmitted, err := f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScriptStatusPendingReview, resubmitted.Status)
}

func Test_pipelineService_Publish_NotGatedOnAssets(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)
	platform := seedPlatform(t, f.db, "YouTube")

	// No script, no assets: publishing is still allowed.
	resp, err := f.svc.Publish(ctx, f.publisher, production.ID, &model.PublishRequest{
		Platforms: []model.PublishTarget{{PlatformID: platform.ID, URL: "https://youtu.be/x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.PublicationCount)

	reloaded := f.reload(t, production.ID)
	assert.Equal(t, model.StagePublished, reloaded.CurrentStage)
	assert.Equal(t, model.StatusPublished, reloaded.OverallStatus)
	assert.InDelta(t, 100.0, reloaded.CompletionPercentage, 0.001)
	require.NotNil(t, reloaded.PublishedAt)

	var publications []model.Publication
	require.NoError(t, f.db.Where("production_id = ?", production.ID).Find(&publications).Error)
	require.Len(t, publications, 1)
	assert.Equal(t, platform.ID, publications[0].PlatformID)
	assert.Equal(t, "https://youtu.be/x", publications[0].PublishedURL)
}

func Test_pipelineService_Publish_UnknownPlatform(t *testing.T) {
	f := newPipelineFixture(t)
	production := f.production(t)

	_, err := f.svc.Publish(context.Background(), f.publisher, production.ID, &model.PublishRequest{
		Platforms: []model.PublishTarget{{PlatformID: 404}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// The transaction rolled back: nothing published.
	reloaded := f.reload(t, production.ID)
	assert.Equal(t, model.StatusInProduction, reloaded.OverallStatus)
}

func Test_pipelineService_CompletionPercentageNeverDecreases(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)
	platform := seedPlatform(t, f.db, "App")

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Late approval", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)

	_, err = f.svc.Publish(ctx, f.publisher, production.ID, &model.PublishRequest{
		Platforms: []model.PublishTarget{{PlatformID: platform.ID}},
	})
	require.NoError(t, err)

	// Approving the script after publication must not drop the percentage
	// back to the approval milestone.
	_, err = f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{})
	require.NoError(t, err)

	reloaded := f.reload(t, production.ID)
	assert.InDelta(t, 100.0, reloaded.CompletionPercentage, 0.001)
}

func Test_pipelineService_AssetsRequireApprovedScript(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	artistRole := seedRole(t, f.db, "illustrator", model.PermUploadIllustration)
	artist, _ := seedMember(t, f.db, "artist", artistRole)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Unapproved", Content: "words",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateIllustration(ctx, artist, &model.CreateIllustrationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func Test_pipelineService_IllustrationUploadLifecycle(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	artistRole := seedRole(t, f.db, "illustrator", model.PermUploadIllustration)
	artist, artistMember := seedMember(t, f.db, "artist", artistRole)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Episode", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{})
	require.NoError(t, err)

	illustration, err := f.svc.CreateIllustration(ctx, artist, &model.CreateIllustrationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssetStatusDraft, illustration.Status)
	assert.Equal(t, artistMember.ID, illustration.ArtistID)

	sketched, err := f.svc.AttachIllustrationFile(ctx, artist, illustration.ID, FileKindSketch, "uploads/sketch.png")
	require.NoError(t, err)
	assert.Equal(t, model.AssetStatusSketchUploaded, sketched.Status)

	finished, err := f.svc.AttachIllustrationFile(ctx, artist, illustration.ID, FileKindFinal, "uploads/final.png")
	require.NoError(t, err)
	assert.Equal(t, model.AssetStatusCompleted, finished.Status)
	require.NotNil(t, finished.CompletedAt)

	status, err := f.svc.GetPipelineStatus(ctx, artist, production.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScriptStatusApproved, status.Script.Status)
	assert.Equal(t, 1, status.Illustration.Count)
	assert.Equal(t, 1, status.Illustration.CompletedCount)
	assert.Equal(t, model.AssetStatusCompleted, status.Illustration.Status)
	assert.Equal(t, "not_started", status.Voice.Status)
}

func Test_pipelineService_NonMemberCannotAct(t *testing.T) {
	f := newPipelineFixture(t)
	outsider := &model.User{Username: "outsider", Email: "outsider@example.com", IsActive: true}
	require.NoError(t, f.db.Create(outsider).Error)
	production := f.production(t)
	platform := seedPlatform(t, f.db, "App")
	ctx := context.Background()

	_, err := f.svc.Publish(ctx, outsider, production.ID, &model.PublishRequest{
		Platforms: []model.PublishTarget{{PlatformID: platform.ID}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// Reads are team-only too.
	_, err = f.svc.GetProduction(ctx, outsider, production.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.svc.ListProductions(ctx, outsider, model.ProductionFilter{})
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.svc.GetPipelineStatus(ctx, outsider, production.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func Test_pipelineService_MembersCanReadRegardlessOfRole(t *testing.T) {
	f := newPipelineFixture(t)
	production := f.production(t)
	ctx := context.Background()

	// The publisher holds no read-specific permission; membership suffices.
	got, err := f.svc.GetProduction(ctx, f.publisher, production.ID)
	require.NoError(t, err)
	assert.Equal(t, production.ID, got.ID)

	list, err := f.svc.ListProductions(ctx, f.publisher, model.ProductionFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func Test_pipelineService_SubmitScript_WriterOnly(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	rivalRole := seedRole(t, f.db, "second_writer", model.PermCreateScript)
	rival, _ := seedMember(t, f.db, "rival", rivalRole)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Mine", Content: "words",
	})
	require.NoError(t, err)

	// Another member with CREATE_SCRIPT still cannot submit someone
	// else's draft.
	_, err = f.svc.SubmitScriptForReview(ctx, rival, script.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)
}

func Test_pipelineService_AttachFiles_CreatorOnly(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	artistRole := seedRole(t, f.db, "illustrator", model.PermUploadIllustration)
	artist, _ := seedMember(t, f.db, "artist", artistRole)
	rivalRole := seedRole(t, f.db, "second_illustrator", model.PermUploadIllustration)
	rival, _ := seedMember(t, f.db, "rival_artist", rivalRole)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Episode", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{})
	require.NoError(t, err)

	illustration, err := f.svc.CreateIllustration(ctx, artist, &model.CreateIllustrationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.NoError(t, err)

	// Same permission, different member: forbidden.
	_, err = f.svc.AttachIllustrationFile(ctx, rival, illustration.ID, FileKindSketch, "uploads/x.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// The creator still can.
	_, err = f.svc.AttachIllustrationFile(ctx, artist, illustration.ID, FileKindSketch, "uploads/x.png")
	require.NoError(t, err)

	voiceRole := seedRole(t, f.db, "voice_actor", model.PermUploadVoice)
	voiceActor, _ := seedMember(t, f.db, "voice", voiceRole)
	rivalVoiceRole := seedRole(t, f.db, "second_voice", model.PermUploadVoice)
	rivalVoice, _ := seedMember(t, f.db, "rival_voice", rivalVoiceRole)

	recording, err := f.svc.CreateVoiceRecording(ctx, voiceActor, &model.CreateVoiceRecordingRequest{
		Title: "Scene 1", ScriptText: "text", ScriptID: script.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.AttachVoiceAudio(ctx, rivalVoice, recording.ID, "uploads/x.mp3", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)

	animatorRole := seedRole(t, f.db, "animator", model.PermUploadAnimation)
	animator, _ := seedMember(t, f.db, "animator", animatorRole)
	rivalAnimRole := seedRole(t, f.db, "second_animator", model.PermUploadAnimation)
	rivalAnim, _ := seedMember(t, f.db, "rival_animator", rivalAnimRole)

	animation, err := f.svc.CreateAnimation(ctx, animator, &model.CreateAnimationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.AttachAnimationFile(ctx, rivalAnim, animation.ID, FileKindStoryboard, "uploads/x.mp4", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func Test_pipelineService_AttachFiles_ThumbnailAndPreview(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	production := f.production(t)

	artistRole := seedRole(t, f.db, "illustrator", model.PermUploadIllustration)
	artist, _ := seedMember(t, f.db, "artist", artistRole)
	animatorRole := seedRole(t, f.db, "animator", model.PermUploadAnimation)
	animator, _ := seedMember(t, f.db, "animator", animatorRole)

	script, err := f.svc.CreateScript(ctx, f.writer, production.ID, &model.CreateScriptRequest{
		Title: "Episode", Content: "words",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitScriptForReview(ctx, f.writer, script.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveScript(ctx, f.reviewer, script.ID, &model.ApproveScriptRequest{})
	require.NoError(t, err)

	illustration, err := f.svc.CreateIllustration(ctx, artist, &model.CreateIllustrationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.NoError(t, err)

	// A thumbnail stores the file without touching the status.
	got, err := f.svc.AttachIllustrationFile(ctx, artist, illustration.ID, FileKindThumbnail, "uploads/thumb.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/thumb.png", got.ThumbnailFile)
	assert.Equal(t, model.AssetStatusDraft, got.Status)

	animation, err := f.svc.CreateAnimation(ctx, animator, &model.CreateAnimationRequest{
		Title: "Scene 1", ScriptID: script.ID,
	})
	require.NoError(t, err)

	// A preview marks the animation in progress.
	anim, err := f.svc.AttachAnimationFile(ctx, animator, animation.ID, FileKindPreview, "uploads/preview.mp4", 512)
	require.NoError(t, err)
	assert.Equal(t, "uploads/preview.mp4", anim.PreviewFile)
	assert.Equal(t, model.AssetStatusInProgress, anim.Status)

	var stored model.Animation
	require.NoError(t, f.db.First(&stored, animation.ID).Error)
	assert.Equal(t, model.AssetStatusInProgress, stored.Status)
}
