package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"questengine/internal/config"
	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// generatedQuestSchema validates the payload shape the generator is asked to
// produce. Numeric fields are still sanitized afterwards; the schema only
// rejects structurally broken responses.
const generatedQuestSchema = `{
	"type": "object",
	"required": ["title", "description", "requirement_value", "xp_reward", "gem_reward"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"requirement_value": {"type": "number"},
		"xp_reward": {"type": "number"},
		"gem_reward": {"type": "number"}
	}
}`

// generatedQuestPayload is the decoded generator response for one quest.
type generatedQuestPayload struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	RequirementValue interface{} `json:"requirement_value"`
	XPReward         interface{} `json:"xp_reward"`
	GemReward        interface{} `json:"gem_reward"`
}

// GeneratedArchetypes lists the quest types the catalog builds each day, in a
// fixed order. streak_maintain is included but never sent to the generator.
var GeneratedArchetypes = []models.QuestType{
	models.QuestTypeQuizComplete,
	models.QuestTypeCategoryFocus,
	models.QuestTypeAccuracyAchieve,
	models.QuestTypeStreakMaintain,
	models.QuestTypeLanguageFocus,
}

// QuestGeneratorServiceInterface defines quest definition generation.
type QuestGeneratorServiceInterface interface {
	Generate(ctx context.Context, archetype models.QuestType, questDate time.Time) *models.QuestDefinition
}

// QuestGeneratorService builds one QuestDefinition per archetype per day. The
// content generator supplies titles and numbers; any failure yields the
// archetype's static fallback so catalog creation never blocks on generator
// availability.
type QuestGeneratorService struct {
	client    GeneratorClient
	cfg       *config.Config
	logger    *observability.Logger
	rng       *rand.Rand
	attempts  metric.Int64Counter
	fallbacks metric.Int64Counter
}

// NewQuestGeneratorService creates a new QuestGeneratorService instance
func NewQuestGeneratorService(client GeneratorClient, cfg *config.Config, logger *observability.Logger) *QuestGeneratorService {
	meter := otel.Meter("quest-generator")
	attempts, _ := meter.Int64Counter("quest.generation.attempts")
	fallbacks, _ := meter.Int64Counter("quest.generation.fallbacks")

	return &QuestGeneratorService{
		client:    client,
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		attempts:  attempts,
		fallbacks: fallbacks,
	}
}

// Generate produces the QuestDefinition for one archetype and day. It never
// returns an error: generation failures are logged and replaced by the
// archetype's fallback definition with IsGenerated=false.
func (s *QuestGeneratorService) Generate(ctx context.Context, archetype models.QuestType, questDate time.Time) *models.QuestDefinition {
	ctx, span := observability.TraceGeneratorFunction(ctx, "Generate",
		observability.AttributeQuestType(archetype),
		observability.AttributeQuestDate(questDate.Format(contextutils.DateLayout)),
	)
	defer span.End()

	// streak_maintain is driven by the streak engine, not by generated content.
	if archetype == models.QuestTypeStreakMaintain {
		return s.fallback(archetype, questDate, models.QuestTypeData{})
	}

	typeData := s.typeDataFor(archetype)

	s.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("quest.type", string(archetype))))

	def, err := s.generateFromContent(ctx, archetype, questDate, typeData)
	if err != nil {
		span.SetAttributes(attribute.Bool("generation.fallback", true))
		s.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("quest.type", string(archetype))))
		s.logger.Warn(ctx, "Quest generation failed, using fallback", map[string]interface{}{
			"quest_type": string(archetype),
			"quest_date": questDate.Format(contextutils.DateLayout),
			"error":      err.Error(),
		})
		return s.fallback(archetype, questDate, typeData)
	}

	return def
}

// typeDataFor builds the type-specific payload for archetypes that carry one.
func (s *QuestGeneratorService) typeDataFor(archetype models.QuestType) models.QuestTypeData {
	switch archetype {
	case models.QuestTypeCategoryFocus:
		categories := s.cfg.FocusCategories()
		levels := s.cfg.FocusLevels()
		return models.QuestTypeData{
			CategoryFocus: &models.CategoryFocusData{
				Category: categories[s.rng.Intn(len(categories))],
				Level:    levels[s.rng.Intn(len(levels))],
			},
		}
	case models.QuestTypeLanguageFocus:
		return models.QuestTypeData{
			LanguageFocus: &models.LanguageFocusData{RequiresLanguageContext: true},
		}
	}
	return models.QuestTypeData{}
}

// generateFromContent prompts the generator and builds a sanitized definition
// from its response.
func (s *QuestGeneratorService) generateFromContent(ctx context.Context, archetype models.QuestType, questDate time.Time, typeData models.QuestTypeData) (result0 *models.QuestDefinition, err error) {
	ctx, span := observability.TraceGeneratorFunction(ctx, "generateFromContent",
		observability.AttributeQuestType(archetype),
	)
	defer observability.FinishSpan(span, &err)

	prompt := s.buildPrompt(archetype, typeData)

	raw, err := s.client.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONResponse(raw)

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(generatedQuestSchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid, "schema validation failed: %w", err)
	}
	if !validation.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid, "generated quest payload invalid: %v", validation.Errors())
	}

	var payload generatedQuestPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrGenerationResponseInvalid, "failed to decode generated quest: %w", err)
	}

	def := &models.QuestDefinition{
		QuestDate:   contextutils.NormalizeDate(questDate),
		QuestType:   archetype,
		Title:       payload.Title,
		Description: payload.Description,
		TypeData:    typeData,
		IsGenerated: true,
		IsActive:    true,
	}

	switch archetype {
	case models.QuestTypeQuizComplete:
		def.RequirementValue = SanitizeReward(payload.RequirementValue, KindQuizRequirement)
		def.XPReward = SanitizeReward(payload.XPReward, KindQuizXP)
		def.GemReward = SanitizeReward(payload.GemReward, KindQuizGems)
	case models.QuestTypeCategoryFocus:
		def.RequirementValue = SanitizeReward(payload.RequirementValue, KindCategoryRequirement)
		def.XPReward = SanitizeReward(payload.XPReward, KindCategoryXP)
		def.GemReward = SanitizeReward(payload.GemReward, KindCategoryGems)
	case models.QuestTypeAccuracyAchieve:
		def.RequirementValue = SanitizeReward(payload.RequirementValue, KindAccuracyRequirement)
		def.XPReward = SanitizeReward(payload.XPReward, KindAccuracyXP)
		def.GemReward = SanitizeReward(payload.GemReward, KindAccuracyGems)
	case models.QuestTypeLanguageFocus:
		// No dedicated bounds for this archetype; reuse the quiz ranges.
		def.RequirementValue = SanitizeReward(payload.RequirementValue, KindQuizRequirement)
		def.XPReward = SanitizeReward(payload.XPReward, KindQuizXP)
		def.GemReward = SanitizeReward(payload.GemReward, KindQuizGems)
	default:
		return nil, contextutils.ErrorWithContextf("archetype %s is not generated", archetype)
	}

	return def, nil
}

// buildPrompt describes the archetype and the desired response schema in
// natural language.
func (s *QuestGeneratorService) buildPrompt(archetype models.QuestType, typeData models.QuestTypeData) string {
	header := "You create short daily quests for a language-learning app. " +
		"Respond with a single JSON object and nothing else, with fields: " +
		`"title" (string), "description" (string), "requirement_value" (integer), "xp_reward" (integer), "gem_reward" (integer).`

	switch archetype {
	case models.QuestTypeQuizComplete:
		return header + " The quest asks the user to complete between 1 and 10 quizzes today. " +
			"Keep xp_reward between 10 and 200 and gem_reward between 1 and 50."
	case models.QuestTypeCategoryFocus:
		category, level := "grammar", "basic"
		if typeData.CategoryFocus != nil {
			category = typeData.CategoryFocus.Category
			level = typeData.CategoryFocus.Level
		}
		return header + fmt.Sprintf(" The quest asks the user to answer between 3 and 15 %s questions at %s level. ", category, level) +
			"Keep xp_reward between 20 and 150 and gem_reward between 3 and 25."
	case models.QuestTypeAccuracyAchieve:
		return header + " The quest asks the user to finish a quiz with an accuracy between 70 and 95 percent; " +
			"requirement_value is the accuracy percentage. " +
			"Keep xp_reward between 30 and 120 and gem_reward between 5 and 20."
	case models.QuestTypeLanguageFocus:
		return header + " The quest asks the user to practice in their selected learning language today, " +
			"answering between 1 and 10 questions. Keep xp_reward between 10 and 200 and gem_reward between 1 and 50."
	}
	return header
}

// fallback returns the static definition for an archetype. Used whenever the
// generator is unavailable or its response cannot be trusted.
func (s *QuestGeneratorService) fallback(archetype models.QuestType, questDate time.Time, typeData models.QuestTypeData) *models.QuestDefinition {
	def := &models.QuestDefinition{
		QuestDate:   contextutils.NormalizeDate(questDate),
		QuestType:   archetype,
		TypeData:    typeData,
		IsGenerated: false,
		IsActive:    true,
	}

	switch archetype {
	case models.QuestTypeQuizComplete:
		def.Title = "Quiz Runner"
		def.Description = "Complete a quiz today."
		def.RequirementValue = 1
		def.XPReward = 50
		def.GemReward = 5
	case models.QuestTypeCategoryFocus:
		category, level := "grammar", "basic"
		if typeData.CategoryFocus != nil {
			category = typeData.CategoryFocus.Category
			level = typeData.CategoryFocus.Level
		}
		def.Title = fmt.Sprintf("Focus on %s", category)
		def.Description = fmt.Sprintf("Answer 5 %s questions at %s level.", category, level)
		def.RequirementValue = 5
		def.XPReward = 60
		def.GemReward = 10
	case models.QuestTypeAccuracyAchieve:
		def.Title = "Sharp Shooter"
		def.Description = "Finish a quiz with at least 80% accuracy."
		def.RequirementValue = 80
		def.XPReward = 70
		def.GemReward = 12
	case models.QuestTypeStreakMaintain:
		def.Title = "Keep the Streak"
		def.Description = "Learn something today to keep your streak alive."
		def.RequirementValue = 1
		def.XPReward = 30
		def.GemReward = 5
	case models.QuestTypeLanguageFocus:
		def.Title = "Language Devotion"
		def.Description = "Practice in your selected language today."
		def.RequirementValue = 1
		def.XPReward = 50
		def.GemReward = 5
	}

	return def
}
