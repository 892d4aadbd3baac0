//go:build integration

package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"questengine/internal/config"
	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingGeneratorClient forces every archetype onto its fallback definition
// so integration tests never reach out to a real generator.
type failingGeneratorClient struct{}

func (failingGeneratorClient) GenerateText(_ context.Context, _ string) (string, error) {
	return "", contextutils.ErrGenerationFailed
}

type engineServices struct {
	db         *sql.DB
	users      *UserService
	catalog    *QuestCatalogService
	assignment *QuestAssignmentService
	progress   *QuestProgressService
	streak     *StreakService
	ledger     *RewardLedger
}

func newEngineServices(t *testing.T) (*engineServices, func()) {
	db := SharedTestDBSetup(t)
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	cfg := &config.Config{}

	generator := NewQuestGeneratorService(failingGeneratorClient{}, cfg, logger)
	users := NewUserService(db, logger)
	catalog := NewQuestCatalogService(db, logger, generator)
	assignment := NewQuestAssignmentService(db, logger, catalog, users)
	ledger := NewRewardLedger(db, logger)
	progress := NewQuestProgressService(db, logger, assignment, users, ledger)
	streak := NewStreakService(db, logger)

	cleanup := func() {
		require.NoError(t, db.Close())
	}
	return &engineServices{
		db:         db,
		users:      users,
		catalog:    catalog,
		assignment: assignment,
		progress:   progress,
		streak:     streak,
		ledger:     ledger,
	}, cleanup
}

func TestIntegration_EnsureCatalogForDay_Idempotent(t *testing.T) {
	svc, cleanup := newEngineServices(t)
	defer cleanup()
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.catalog.EnsureCatalogForDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, first, len(GeneratedArchetypes))

	second, err := svc.catalog.EnsureCatalogForDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, second, len(GeneratedArchetypes))

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].QuestType, second[i].QuestType)
	}
}

func TestIntegration_AssignForUser_IdempotentAndGated(t *testing.T) {
	svc, cleanup := newEngineServices(t)
	defer cleanup()
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	user, err := svc.users.CreateUser(ctx, "nolang", "")
	require.NoError(t, err)

	// Without a selected language the language_focus quest is excluded.
	links, err := svc.assignment.AssignForUser(ctx, user.ID, day)
	require.NoError(t, err)
	assert.Len(t, links, len(GeneratedArchetypes)-1)
	for _, link := range links {
		assert.NotEqual(t, models.QuestTypeLanguageFocus, link.Definition.QuestType)
	}

	again, err := svc.assignment.AssignForUser(ctx, user.ID, day)
	require.NoError(t, err)
	require.Len(t, again, len(links))
	for i := range links {
		assert.Equal(t, links[i].ID, again[i].ID)
	}

	// A user with a language gets the full catalog.
	withLang, err := svc.users.CreateUser(ctx, "withlang", "")
	require.NoError(t, err)
	require.NoError(t, svc.users.SetUserLanguage(ctx, withLang.ID, "it"))

	full, err := svc.assignment.AssignForUser(ctx, withLang.ID, day)
	require.NoError(t, err)
	assert.Len(t, full, len(GeneratedArchetypes))
}

func TestIntegration_CategoryFocusCompletionAwardsOnce(t *testing.T) {
	svc, cleanup := newEngineServices(t)
	defer cleanup()
	ctx := context.Background()
	today := contextutils.NormalizeDate(time.Now())

	user, err := svc.users.CreateUser(ctx, "worker", "")
	require.NoError(t, err)
	require.NoError(t, svc.users.SetUserLanguage(ctx, user.ID, "it"))

	links, err := svc.assignment.AssignForUser(ctx, user.ID, today)
	require.NoError(t, err)

	var categoryLink *models.UserQuestLinkWithDefinition
	for _, link := range links {
		if link.Definition.QuestType == models.QuestTypeCategoryFocus {
			categoryLink = link
		}
	}
	require.NotNil(t, categoryLink)
	require.NotNil(t, categoryLink.Definition.TypeData.CategoryFocus)

	event := &models.ActivityEvent{
		Type: models.EventQuestionAnswered,
		Data: models.ActivityEventData{
			Category: categoryLink.Definition.TypeData.CategoryFocus.Category,
			Level:    categoryLink.Definition.TypeData.CategoryFocus.Level,
		},
	}

	requirement := categoryLink.Definition.RequirementValue
	for i := 0; i < requirement; i++ {
		_, err := svc.progress.ApplyEvent(ctx, user.ID, event)
		require.NoError(t, err)
	}

	refreshed, err := svc.assignment.GetUserQuestLinks(ctx, user.ID, today)
	require.NoError(t, err)
	for _, link := range refreshed {
		if link.ID == categoryLink.ID {
			assert.True(t, link.IsCompleted)
			assert.Equal(t, requirement, link.ProgressValue)
		}
	}

	userAfter, err := svc.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	xpAfterCompletion := userAfter.TotalXP

	// Further matching events change nothing.
	_, err = svc.progress.ApplyEvent(ctx, user.ID, event)
	require.NoError(t, err)

	userFinal, err := svc.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, xpAfterCompletion, userFinal.TotalXP, "completed quests must not award again")
}

func TestIntegration_StreakMilestoneAndReset(t *testing.T) {
	svc, cleanup := newEngineServices(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.users.CreateUser(ctx, "streaker", "")
	require.NoError(t, err)

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// With no stamped activity day the call leaves the streak fields alone.
	noop, err := svc.streak.RecordActivity(ctx, user.ID, day0.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, noop.CurrentStreak)
	assert.True(t, noop.LearnedToday)

	// The first activity day is stamped outside this engine; seed it.
	_, err = svc.db.ExecContext(ctx,
		`UPDATE users SET current_streak = 1, max_streak = 1, last_activity_date = $1 WHERE id = $2`,
		day0.AddDate(0, 0, -1), user.ID)
	require.NoError(t, err)

	// day0 extends it to 2.
	_, err = svc.streak.RecordActivity(ctx, user.ID, day0)
	require.NoError(t, err)

	// day0+1 hits the 3-day milestone.
	result, err := svc.streak.RecordActivity(ctx, user.ID, day0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, result.CurrentStreak)
	require.NotNil(t, result.Reward)
	assert.Equal(t, 15, result.Reward.Amount)

	// Same day again: idempotent, no extra gems.
	before, err := svc.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	repeat, err := svc.streak.RecordActivity(ctx, user.ID, day0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, repeat.LearnedToday)
	assert.Equal(t, 3, repeat.CurrentStreak)
	after, err := svc.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalGems, after.TotalGems)

	// An 8-day gap resets the streak.
	reset, err := svc.streak.RecordActivity(ctx, user.ID, day0.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, 1, reset.CurrentStreak)
	assert.Nil(t, reset.Reward)

	status, err := svc.streak.GetStreakStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentStreak)
	assert.Equal(t, 3, status.MaxStreak)
}
