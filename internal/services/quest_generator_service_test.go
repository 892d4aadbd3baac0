package services

import (
	"context"
	"testing"
	"time"

	"questengine/internal/config"
	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGeneratorClient returns a canned response or error.
type stubGeneratorClient struct {
	response string
	err      error
	calls    int
}

func (c *stubGeneratorClient) GenerateText(_ context.Context, _ string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func newTestGeneratorService(client GeneratorClient) *QuestGeneratorService {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	cfg := &config.Config{}
	return NewQuestGeneratorService(client, cfg, logger)
}

func TestQuestGeneratorService_GeneratedDefinition(t *testing.T) {
	client := &stubGeneratorClient{
		response: `{"title":"Quiz Sprint","description":"Do three quizzes","requirement_value":3,"xp_reward":100,"gem_reward":20}`,
	}
	service := newTestGeneratorService(client)
	day := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

	def := service.Generate(context.Background(), models.QuestTypeQuizComplete, day)
	require.NotNil(t, def)
	assert.True(t, def.IsGenerated)
	assert.True(t, def.IsActive)
	assert.Equal(t, "Quiz Sprint", def.Title)
	assert.Equal(t, 3, def.RequirementValue)
	assert.Equal(t, 100, def.XPReward)
	assert.Equal(t, 20, def.GemReward)
	assert.Equal(t, contextutils.NormalizeDate(day), def.QuestDate)
	assert.Equal(t, 1, client.calls)
}

func TestQuestGeneratorService_OutOfRangeValuesSanitized(t *testing.T) {
	client := &stubGeneratorClient{
		response: `{"title":"Greedy","description":"","requirement_value":999,"xp_reward":99999,"gem_reward":-5}`,
	}
	service := newTestGeneratorService(client)

	def := service.Generate(context.Background(), models.QuestTypeQuizComplete, time.Now())
	require.NotNil(t, def)
	assert.True(t, def.IsGenerated)
	assert.Equal(t, 1, def.RequirementValue)
	assert.Equal(t, 50, def.XPReward)
	assert.Equal(t, 5, def.GemReward)
}

func TestQuestGeneratorService_MarkdownFencedResponse(t *testing.T) {
	client := &stubGeneratorClient{
		response: "```json\n{\"title\":\"Fenced\",\"description\":\"d\",\"requirement_value\":5,\"xp_reward\":100,\"gem_reward\":10}\n```",
	}
	service := newTestGeneratorService(client)

	def := service.Generate(context.Background(), models.QuestTypeCategoryFocus, time.Now())
	require.NotNil(t, def)
	assert.True(t, def.IsGenerated)
	assert.Equal(t, "Fenced", def.Title)
	assert.Equal(t, 5, def.RequirementValue)
}

func TestQuestGeneratorService_GeneratorErrorFallsBack(t *testing.T) {
	client := &stubGeneratorClient{err: contextutils.ErrGenerationFailed}
	service := newTestGeneratorService(client)

	def := service.Generate(context.Background(), models.QuestTypeQuizComplete, time.Now())
	require.NotNil(t, def)
	assert.False(t, def.IsGenerated)
	assert.Equal(t, 1, def.RequirementValue)
	assert.Equal(t, 50, def.XPReward)
	assert.Equal(t, 5, def.GemReward)
	assert.NotEmpty(t, def.Title)
}

func TestQuestGeneratorService_MalformedResponseFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "sure! here is your quest"},
		{"missing fields", `{"title":"Incomplete"}`},
		{"wrong types", `{"title":7,"description":"","requirement_value":"x","xp_reward":[],"gem_reward":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestGeneratorService(&stubGeneratorClient{response: tt.response})
			def := service.Generate(context.Background(), models.QuestTypeAccuracyAchieve, time.Now())
			require.NotNil(t, def)
			assert.False(t, def.IsGenerated)
			assert.Equal(t, 80, def.RequirementValue)
		})
	}
}

func TestQuestGeneratorService_StreakMaintainNeverGenerated(t *testing.T) {
	client := &stubGeneratorClient{response: `{"title":"x","description":"","requirement_value":1,"xp_reward":50,"gem_reward":5}`}
	service := newTestGeneratorService(client)

	def := service.Generate(context.Background(), models.QuestTypeStreakMaintain, time.Now())
	require.NotNil(t, def)
	assert.False(t, def.IsGenerated)
	assert.Equal(t, 0, client.calls, "streak_maintain must not invoke the generator")
}

func TestQuestGeneratorService_LanguageFocusRequiresContext(t *testing.T) {
	// Whether generated or fallback, language_focus always carries the gate.
	for _, client := range []*stubGeneratorClient{
		{response: `{"title":"Practice","description":"","requirement_value":2,"xp_reward":40,"gem_reward":8}`},
		{err: contextutils.ErrGenerationFailed},
	} {
		service := newTestGeneratorService(client)
		def := service.Generate(context.Background(), models.QuestTypeLanguageFocus, time.Now())
		require.NotNil(t, def)
		assert.True(t, def.TypeData.RequiresLanguageContext())
	}
}

func TestQuestGeneratorService_CategoryFocusSamplesFromPools(t *testing.T) {
	service := newTestGeneratorService(&stubGeneratorClient{err: contextutils.ErrGenerationFailed})

	def := service.Generate(context.Background(), models.QuestTypeCategoryFocus, time.Now())
	require.NotNil(t, def)
	require.NotNil(t, def.TypeData.CategoryFocus)
	assert.Contains(t, config.DefaultFocusCategories, def.TypeData.CategoryFocus.Category)
	assert.Contains(t, config.DefaultFocusLevels, def.TypeData.CategoryFocus.Level)
}
