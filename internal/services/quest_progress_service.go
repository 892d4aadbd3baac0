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

// QuestProgressServiceInterface defines quest progress tracking operations
type QuestProgressServiceInterface interface {
	ApplyEvent(ctx context.Context, userID int, event *models.ActivityEvent) (*models.ProgressResult, error)
}

// QuestProgressService advances quest links from activity events. Each event
// is matched against the user's open links for today via per-archetype
// predicates; completion flips at most once and pays out in the same
// transaction.
type QuestProgressService struct {
	db          *sql.DB
	logger      *observability.Logger
	assignment  QuestAssignmentServiceInterface
	userService UserServiceInterface
	ledger      RewardLedgerInterface
	now         func() time.Time
}

// NewQuestProgressService creates a new QuestProgressService instance
func NewQuestProgressService(db *sql.DB, logger *observability.Logger, assignment QuestAssignmentServiceInterface, userService UserServiceInterface, ledger RewardLedgerInterface) *QuestProgressService {
	return &QuestProgressService{
		db:          db,
		logger:      logger,
		assignment:  assignment,
		userService: userService,
		ledger:      ledger,
		now:         time.Now,
	}
}

// ApplyEvent matches one activity event against the user's incomplete quest
// links for today, increments progress, and completes links whose requirement
// is now met. Safe to call repeatedly with overlapping events: increments are
// conditional on is_completed and rewards are paid only on the completion
// flip.
func (s *QuestProgressService) ApplyEvent(ctx context.Context, userID int, event *models.ActivityEvent) (result0 *models.ProgressResult, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "ApplyEvent",
		observability.AttributeUserID(userID),
		observability.AttributeEventType(event.Type),
	)
	defer observability.FinishSpan(span, &err)

	if !event.Type.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown event type %q", event.Type)
	}

	lctx, err := s.userService.GetLanguageContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := contextutils.NormalizeDate(s.now())
	links, err := s.assignment.GetUserQuestLinks(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	result := &models.ProgressResult{}
	for _, link := range links {
		if link.IsCompleted {
			continue
		}
		if s.skipForLanguageGate(link.Definition, event, lctx) {
			continue
		}

		increment := progressIncrement(link.Definition, event)
		if increment <= 0 {
			continue
		}

		updated, completed, applyErr := s.applyIncrement(ctx, link, increment)
		if applyErr != nil {
			return nil, applyErr
		}
		if updated == nil {
			// Lost the race to a concurrent completion; nothing to report.
			continue
		}
		result.Updated = append(result.Updated, updated)
		if completed {
			result.Completed = append(result.Completed, updated)
		}
	}

	span.SetAttributes(
		attribute.Int("progress.updated", len(result.Updated)),
		attribute.Int("progress.completed", len(result.Completed)),
	)
	return result, nil
}

// skipForLanguageGate re-checks language-gating at event time: a gated quest
// ignores events tagged with a language other than the user's selection.
func (s *QuestProgressService) skipForLanguageGate(def *models.QuestDefinition, event *models.ActivityEvent, lctx *models.LanguageContext) bool {
	if !def.TypeData.RequiresLanguageContext() {
		return false
	}
	if !lctx.HasSelectedLanguage() {
		return true
	}
	if event.Data.LanguageCode != "" && event.Data.LanguageCode != lctx.SelectedLanguage.Code {
		return true
	}
	return false
}

// progressIncrement dispatches on quest type to decide whether and by how
// much this event advances the quest. streak_maintain is driven by the streak
// engine, never by events.
func progressIncrement(def *models.QuestDefinition, event *models.ActivityEvent) int {
	switch def.QuestType {
	case models.QuestTypeQuizComplete:
		if event.Type == models.EventQuizCompleted {
			return 1
		}
	case models.QuestTypeCategoryFocus:
		if event.Type == models.EventQuestionAnswered && def.TypeData.CategoryFocus != nil &&
			event.Data.Category == def.TypeData.CategoryFocus.Category &&
			event.Data.Level == def.TypeData.CategoryFocus.Level {
			return 1
		}
	case models.QuestTypeAccuracyAchieve:
		// One-shot: a qualifying quiz satisfies the whole requirement.
		if event.Type == models.EventQuizCompleted && event.Data.Accuracy != nil &&
			*event.Data.Accuracy >= float64(def.RequirementValue) {
			return def.RequirementValue
		}
	case models.QuestTypeLanguageFocus:
		if event.Type == models.EventQuestionAnswered || event.Type == models.EventQuizCompleted {
			return 1
		}
	case models.QuestTypeXPEarn:
		if event.Data.XPEarned != nil && *event.Data.XPEarned > 0 {
			return *event.Data.XPEarned
		}
	}
	return 0
}

// applyIncrement advances one link inside a transaction. The increment is a
// relative UPDATE guarded by is_completed, so concurrent events for the same
// link serialize at the row and an already-completed link is never advanced.
// Returns the refreshed link and whether this call performed the completion.
func (s *QuestProgressService) applyIncrement(ctx context.Context, link *models.UserQuestLinkWithDefinition, increment int) (result0 *models.UserQuestLinkWithDefinition, completed bool, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "applyIncrement",
		observability.AttributeUserID(link.UserID),
		observability.AttributeQuestID(link.QuestID),
		attribute.Int("progress.increment", increment),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Error(ctx, "Failed to rollback transaction", rollbackErr, map[string]interface{}{
					"link_id": link.ID,
				})
			}
		}
	}()

	var newProgress int
	incrementQuery := `
		UPDATE user_daily_quests
		SET progress_value = progress_value + $1
		WHERE id = $2 AND is_completed = FALSE
		RETURNING progress_value`
	err = tx.QueryRowContext(ctx, incrementQuery, increment, link.ID).Scan(&newProgress)
	if err != nil {
		if err == sql.ErrNoRows {
			// Completed by a concurrent event between our read and this write.
			err = nil
			if commitErr := tx.Commit(); commitErr != nil {
				err = contextutils.WrapError(commitErr, "failed to commit transaction")
				return nil, false, err
			}
			span.SetAttributes(attribute.Bool("progress.lost_race", true))
			return nil, false, nil
		}
		return nil, false, contextutils.WrapError(err, "failed to increment progress")
	}

	completedAt := sql.NullTime{}
	if newProgress >= link.Definition.RequirementValue {
		now := s.now()
		completeQuery := `
			UPDATE user_daily_quests
			SET is_completed = TRUE, completed_at = $1
			WHERE id = $2 AND is_completed = FALSE`
		res, completeErr := tx.ExecContext(ctx, completeQuery, now, link.ID)
		if completeErr != nil {
			err = contextutils.WrapError(completeErr, "failed to complete quest link")
			return nil, false, err
		}
		affected, affErr := res.RowsAffected()
		if affErr != nil {
			err = contextutils.WrapError(affErr, "failed to check completion result")
			return nil, false, err
		}
		if affected == 1 {
			// The flip happened in this transaction; pay out exactly once.
			if awardErr := s.ledger.AwardTx(ctx, tx, link.UserID, link.Definition.XPReward, link.Definition.GemReward); awardErr != nil {
				err = awardErr
				return nil, false, err
			}
			completed = true
			completedAt = sql.NullTime{Time: now, Valid: true}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, contextutils.WrapError(err, "failed to commit transaction")
	}

	if completed {
		s.logger.Info(ctx, "Quest completed", map[string]interface{}{
			"user_id":    link.UserID,
			"quest_id":   link.QuestID,
			"quest_type": string(link.Definition.QuestType),
			"xp_reward":  link.Definition.XPReward,
			"gem_reward": link.Definition.GemReward,
		})
	}

	refreshed := *link
	refreshed.ProgressValue = newProgress
	refreshed.IsCompleted = link.IsCompleted || completed
	if completedAt.Valid {
		refreshed.CompletedAt = completedAt
	}
	return &refreshed, completed, nil
}
