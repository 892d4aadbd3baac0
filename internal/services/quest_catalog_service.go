package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// QuestCatalogServiceInterface defines daily quest catalog operations
type QuestCatalogServiceInterface interface {
	EnsureCatalogForDay(ctx context.Context, day time.Time) ([]*models.QuestDefinition, error)
	GetCatalogForDay(ctx context.Context, day time.Time) ([]*models.QuestDefinition, error)
	GetQuestByID(ctx context.Context, questID int) (*models.QuestDefinition, error)
}

// QuestCatalogService maintains the per-day quest catalog: at most one
// QuestDefinition per (quest_date, quest_type), created lazily by the first
// caller of the day and immutable afterwards.
type QuestCatalogService struct {
	db        *sql.DB
	logger    *observability.Logger
	generator QuestGeneratorServiceInterface
}

// NewQuestCatalogService creates a new QuestCatalogService instance
func NewQuestCatalogService(db *sql.DB, logger *observability.Logger, generator QuestGeneratorServiceInterface) *QuestCatalogService {
	return &QuestCatalogService{
		db:        db,
		logger:    logger,
		generator: generator,
	}
}

const questDefinitionColumns = `id, quest_date, quest_type, title, description, requirement_value, quest_data, xp_reward, gem_reward, is_ai_generated, is_active, created_at`

// EnsureCatalogForDay returns the day's catalog, creating it if it does not
// exist yet. Concurrent callers racing to create the same day converge on the
// same set: the unique (quest_date, quest_type) constraint turns losing
// writers into no-ops and everyone re-reads.
func (s *QuestCatalogService) EnsureCatalogForDay(ctx context.Context, day time.Time) (result0 []*models.QuestDefinition, err error) {
	day = contextutils.NormalizeDate(day)
	ctx, span := observability.TraceCatalogFunction(ctx, "EnsureCatalogForDay",
		observability.AttributeQuestDate(day.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	existing, err := s.GetCatalogForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		span.SetAttributes(attribute.Bool("catalog.existing", true), attribute.Int("catalog.size", len(existing)))
		return existing, nil
	}

	// Generation happens outside any transaction; each definition lands with
	// an idempotent insert so a concurrent creator cannot duplicate a type.
	created := 0
	for _, archetype := range GeneratedArchetypes {
		def := s.generator.Generate(ctx, archetype, day)
		if insertErr := s.insertDefinition(ctx, def); insertErr != nil {
			if contextutils.IsUniqueViolation(insertErr) {
				// Another caller created this archetype first.
				continue
			}
			return nil, contextutils.WrapErrorf(insertErr, "failed to insert quest definition for type %s", archetype)
		}
		created++
	}

	s.logger.Info(ctx, "Daily quest catalog created", map[string]interface{}{
		"quest_date": day.Format(contextutils.DateLayout),
		"created":    created,
		"archetypes": len(GeneratedArchetypes),
	})

	return s.GetCatalogForDay(ctx, day)
}

// GetCatalogForDay returns all active quest definitions for the given day.
func (s *QuestCatalogService) GetCatalogForDay(ctx context.Context, day time.Time) (result0 []*models.QuestDefinition, err error) {
	day = contextutils.NormalizeDate(day)
	ctx, span := observability.TraceCatalogFunction(ctx, "GetCatalogForDay",
		observability.AttributeQuestDate(day.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questDefinitionColumns + `
		FROM daily_quests
		WHERE quest_date = $1 AND is_active = TRUE
		ORDER BY quest_type`

	rows, err := s.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query quest catalog")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var defs []*models.QuestDefinition
	for rows.Next() {
		def, scanErr := scanQuestDefinition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate quest catalog rows")
	}

	span.SetAttributes(attribute.Int("catalog.size", len(defs)))
	return defs, nil
}

// GetQuestByID returns one quest definition, or ErrQuestNotFound.
func (s *QuestCatalogService) GetQuestByID(ctx context.Context, questID int) (result0 *models.QuestDefinition, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "GetQuestByID",
		observability.AttributeQuestID(questID),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questDefinitionColumns + ` FROM daily_quests WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, questID)

	def, err := scanQuestDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrQuestNotFound, "quest %d not found", questID)
		}
		return nil, err
	}
	return def, nil
}

// insertDefinition persists one definition idempotently. A pre-existing
// (quest_date, quest_type) row surfaces as a unique violation.
func (s *QuestCatalogService) insertDefinition(ctx context.Context, def *models.QuestDefinition) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "insertDefinition",
		observability.AttributeQuestType(def.QuestType),
		observability.AttributeQuestDate(def.QuestDate.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	questData, err := def.TypeData.MarshalFor(def.QuestType)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal quest type data")
	}

	query := `
		INSERT INTO daily_quests (quest_date, quest_type, title, description, requirement_value, quest_data, xp_reward, gem_reward, is_ai_generated, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var nullableData interface{}
	if questData != nil {
		nullableData = questData
	}

	err = s.db.QueryRowContext(ctx, query,
		def.QuestDate, def.QuestType, def.Title, def.Description,
		def.RequirementValue, nullableData, def.XPReward, def.GemReward,
		def.IsGenerated, def.IsActive, time.Now(),
	).Scan(&def.ID)
	if err != nil {
		return err
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestDefinition(row rowScanner) (*models.QuestDefinition, error) {
	var def models.QuestDefinition
	var questData []byte
	err := row.Scan(
		&def.ID, &def.QuestDate, &def.QuestType, &def.Title, &def.Description,
		&def.RequirementValue, &questData, &def.XPReward, &def.GemReward,
		&def.IsGenerated, &def.IsActive, &def.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, contextutils.WrapError(err, "failed to scan quest definition")
	}

	def.TypeData, err = models.ParseQuestTypeData(def.QuestType, questData)
	if err != nil {
		return nil, err
	}
	return &def, nil
}
