package services

import (
	"context"
	"database/sql"
	"time"

	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// QuestAssignmentServiceInterface defines per-user quest assignment operations
type QuestAssignmentServiceInterface interface {
	AssignForUser(ctx context.Context, userID int, day time.Time) ([]*models.UserQuestLinkWithDefinition, error)
	GetUserQuestLinks(ctx context.Context, userID int, day time.Time) ([]*models.UserQuestLinkWithDefinition, error)
	GetUserDailyQuests(ctx context.Context, userID int, day time.Time) ([]*models.UserDailyQuest, error)
}

// QuestAssignmentService links applicable catalog quests to a user for a day,
// exactly once. Quests requiring a language context are skipped for users
// without a selected language.
type QuestAssignmentService struct {
	db          *sql.DB
	logger      *observability.Logger
	catalog     QuestCatalogServiceInterface
	userService UserServiceInterface
}

// NewQuestAssignmentService creates a new QuestAssignmentService instance
func NewQuestAssignmentService(db *sql.DB, logger *observability.Logger, catalog QuestCatalogServiceInterface, userService UserServiceInterface) *QuestAssignmentService {
	return &QuestAssignmentService{
		db:          db,
		logger:      logger,
		catalog:     catalog,
		userService: userService,
	}
}

// AssignForUser ensures the day's catalog exists and links the user to every
// applicable quest. Re-entrant calls for the same (user, day) return the
// existing links unchanged; concurrent callers converge via the unique
// (user_id, daily_quest_id) constraint.
func (s *QuestAssignmentService) AssignForUser(ctx context.Context, userID int, day time.Time) (result0 []*models.UserQuestLinkWithDefinition, err error) {
	day = contextutils.NormalizeDate(day)
	ctx, span := observability.TraceAssignmentFunction(ctx, "AssignForUser",
		observability.AttributeUserID(userID),
		observability.AttributeQuestDate(day.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	catalog, err := s.catalog.EnsureCatalogForDay(ctx, day)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to ensure quest catalog")
	}

	existing, err := s.GetUserQuestLinks(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		span.SetAttributes(attribute.Bool("assignment.existing", true), attribute.Int("assignment.count", len(existing)))
		return existing, nil
	}

	lctx, err := s.userService.GetLanguageContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	var applicable []*models.QuestDefinition
	for _, def := range catalog {
		if def.TypeData.RequiresLanguageContext() && !lctx.HasSelectedLanguage() {
			continue
		}
		applicable = append(applicable, def)
	}
	span.SetAttributes(
		attribute.Int("catalog.size", len(catalog)),
		attribute.Int("assignment.applicable", len(applicable)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Error(ctx, "Failed to rollback transaction", rollbackErr, map[string]interface{}{
					"user_id": userID,
					"date":    day.Format(contextutils.DateLayout),
				})
			}
		}
	}()

	// Idempotent batch insert: a concurrent assigner's rows survive, ours
	// no-op, and the final read below returns the converged set either way.
	insertQuery := `
		INSERT INTO user_daily_quests (user_id, daily_quest_id, progress_value, is_completed, created_at)
		VALUES ($1, $2, 0, FALSE, $3)
		ON CONFLICT (user_id, daily_quest_id) DO NOTHING`

	for _, def := range applicable {
		if _, err = tx.ExecContext(ctx, insertQuery, userID, def.ID, time.Now()); err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to insert quest link for quest %d", def.ID)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Daily quests assigned", map[string]interface{}{
		"user_id": userID,
		"date":    day.Format(contextutils.DateLayout),
		"count":   len(applicable),
	})

	return s.GetUserQuestLinks(ctx, userID, day)
}

const userQuestLinkJoinColumns = `
	udq.id, udq.user_id, udq.daily_quest_id, udq.progress_value, udq.is_completed, udq.completed_at, udq.created_at,
	dq.id, dq.quest_date, dq.quest_type, dq.title, dq.description, dq.requirement_value, dq.quest_data, dq.xp_reward, dq.gem_reward, dq.is_ai_generated, dq.is_active, dq.created_at`

// GetUserQuestLinks returns the user's quest links for a day with their
// definitions fully populated.
func (s *QuestAssignmentService) GetUserQuestLinks(ctx context.Context, userID int, day time.Time) (result0 []*models.UserQuestLinkWithDefinition, err error) {
	day = contextutils.NormalizeDate(day)
	ctx, span := observability.TraceAssignmentFunction(ctx, "GetUserQuestLinks",
		observability.AttributeUserID(userID),
		observability.AttributeQuestDate(day.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userQuestLinkJoinColumns + `
		FROM user_daily_quests udq
		JOIN daily_quests dq ON dq.id = udq.daily_quest_id
		WHERE udq.user_id = $1 AND dq.quest_date = $2
		ORDER BY dq.quest_type`

	rows, err := s.db.QueryContext(ctx, query, userID, day)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query user quest links")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var links []*models.UserQuestLinkWithDefinition
	for rows.Next() {
		link, scanErr := scanUserQuestLinkWithDefinition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate quest link rows")
	}

	span.SetAttributes(attribute.Int("links.count", len(links)))
	return links, nil
}

// GetUserDailyQuests returns the per-quest projection served to clients.
// Not a pure read: the first call for a user/day materializes the day's
// catalog and links through AssignForUser. Both steps are idempotent, so
// repeated reads return the same set.
func (s *QuestAssignmentService) GetUserDailyQuests(ctx context.Context, userID int, day time.Time) (result0 []*models.UserDailyQuest, err error) {
	day = contextutils.NormalizeDate(day)
	ctx, span := observability.TraceAssignmentFunction(ctx, "GetUserDailyQuests",
		observability.AttributeUserID(userID),
		observability.AttributeQuestDate(day.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	links, err := s.AssignForUser(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	quests := make([]*models.UserDailyQuest, 0, len(links))
	for _, link := range links {
		quest := &models.UserDailyQuest{
			LinkID:             link.ID,
			QuestID:            link.Definition.ID,
			QuestType:          link.Definition.QuestType,
			Title:              link.Definition.Title,
			Description:        link.Definition.Description,
			RequirementValue:   link.Definition.RequirementValue,
			ProgressValue:      link.ProgressValue,
			ProgressPercentage: link.ProgressPercentage(),
			IsCompleted:        link.IsCompleted,
			XPReward:           link.Definition.XPReward,
			GemReward:          link.Definition.GemReward,
		}
		if link.CompletedAt.Valid {
			completedAt := link.CompletedAt.Time
			quest.CompletedAt = &completedAt
		}
		quests = append(quests, quest)
	}
	return quests, nil
}

func scanUserQuestLinkWithDefinition(row rowScanner) (*models.UserQuestLinkWithDefinition, error) {
	var link models.UserQuestLinkWithDefinition
	var def models.QuestDefinition
	var questData []byte

	err := row.Scan(
		&link.ID, &link.UserID, &link.QuestID, &link.ProgressValue, &link.IsCompleted, &link.CompletedAt, &link.CreatedAt,
		&def.ID, &def.QuestDate, &def.QuestType, &def.Title, &def.Description,
		&def.RequirementValue, &questData, &def.XPReward, &def.GemReward,
		&def.IsGenerated, &def.IsActive, &def.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, contextutils.WrapError(err, "failed to scan user quest link")
	}

	def.TypeData, err = models.ParseQuestTypeData(def.QuestType, questData)
	if err != nil {
		return nil, err
	}
	link.Definition = &def
	return &link, nil
}
