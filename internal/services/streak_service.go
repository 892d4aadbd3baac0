package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"questengine/internal/config"
	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// StreakServiceInterface defines streak tracking operations
type StreakServiceInterface interface {
	RecordActivity(ctx context.Context, userID int, activityDay time.Time) (*models.StreakResult, error)
	GetStreakStatus(ctx context.Context, userID int) (*models.StreakStatus, error)
}

// StreakService computes day-boundary streak transitions and bonus gems. The
// streak survives gaps up to MaxStreakBreakDays; the first activity of a new
// day advances it, repeated activity the same day is a no-op.
type StreakService struct {
	db     *sql.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewStreakService creates a new StreakService instance
func NewStreakService(db *sql.DB, logger *observability.Logger) *StreakService {
	return &StreakService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// RecordActivity records that the user learned something on activityDay and
// returns the resulting streak plus any bonus gems. Idempotent within a day:
// the second call for the same day reports learnedToday with no mutation.
// Concurrent day-advancing calls for the same user are resolved by a
// conditional update keyed on the previous last_activity_date, retried a
// bounded number of times.
func (s *StreakService) RecordActivity(ctx context.Context, userID int, activityDay time.Time) (result0 *models.StreakResult, err error) {
	activityDay = contextutils.NormalizeDate(activityDay)
	ctx, span := observability.TraceStreakFunction(ctx, "RecordActivity",
		observability.AttributeUserID(userID),
		attribute.String("activity.date", activityDay.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	for attempt := 0; attempt < config.ProgressUpdateMaxRetries; attempt++ {
		user, getErr := s.getUserStreakFields(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}

		// An unset last_activity_date is treated like a same-day repeat: the
		// wider system stamps the first activity day, this engine only
		// advances from there.
		if !user.LastActivityDate.Valid {
			span.SetAttributes(attribute.Bool("streak.already_recorded", true))
			return &models.StreakResult{
				CurrentStreak: user.CurrentStreak,
				LearnedToday:  true,
			}, nil
		}

		diff := contextutils.DaysBetween(user.LastActivityDate.Time, activityDay)
		if diff == 0 {
			span.SetAttributes(attribute.Bool("streak.already_recorded", true))
			return &models.StreakResult{
				CurrentStreak: user.CurrentStreak,
				LearnedToday:  true,
			}, nil
		}
		if diff < 0 {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "activity day %s precedes last activity %s",
				activityDay.Format(contextutils.DateLayout), user.LastActivityDate.Time.Format(contextutils.DateLayout))
		}

		newStreak := s.nextStreak(user, activityDay)
		newMax := user.MaxStreak
		if newStreak > newMax {
			newMax = newStreak
		}
		reward := s.computeReward(newStreak)
		bonusGems := 0
		if reward != nil {
			bonusGems = reward.Amount
		}

		ok, updateErr := s.persistStreak(ctx, user, activityDay, newStreak, newMax, bonusGems)
		if updateErr != nil {
			return nil, updateErr
		}
		if !ok {
			// Another call advanced the streak first; re-read and re-decide.
			span.SetAttributes(attribute.Int("streak.retry", attempt+1))
			continue
		}

		s.logger.Info(ctx, "Streak recorded", map[string]interface{}{
			"user_id":        userID,
			"current_streak": newStreak,
			"max_streak":     newMax,
			"bonus_gems":     bonusGems,
		})

		return &models.StreakResult{
			CurrentStreak: newStreak,
			LearnedToday:  true,
			Reward:        reward,
		}, nil
	}

	return nil, contextutils.WrapErrorf(contextutils.ErrConcurrentModification,
		"streak update for user %d contended %d times", userID, config.ProgressUpdateMaxRetries)
}

// GetStreakStatus returns the read-only streak snapshot for a user.
func (s *StreakService) GetStreakStatus(ctx context.Context, userID int) (result0 *models.StreakStatus, err error) {
	ctx, span := observability.TraceStreakFunction(ctx, "GetStreakStatus",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.getUserStreakFields(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &models.StreakStatus{
		CurrentStreak: user.CurrentStreak,
		MaxStreak:     user.MaxStreak,
		TotalGems:     user.TotalGems,
	}
	if user.LastActivityDate.Valid {
		last := contextutils.NormalizeDate(user.LastActivityDate.Time)
		status.LastActivityDate = &last
		status.LearnedToday = contextutils.DaysBetween(last, s.now()) == 0
	}
	return status, nil
}

// nextStreak applies the day-boundary transition rules. Callers only reach
// it with a set last_activity_date strictly before activityDay.
func (s *StreakService) nextStreak(user *models.User, activityDay time.Time) int {
	diff := contextutils.DaysBetween(user.LastActivityDate.Time, activityDay)
	if diff > config.MaxStreakBreakDays {
		return 1
	}
	return user.CurrentStreak + 1
}

// computeReward stacks the milestone and weekly bonuses for the new streak
// value. Returns nil when no bonus applies.
func (s *StreakService) computeReward(streak int) *models.StreakReward {
	var details []models.StreakBonus
	milestone := 0

	if gems, ok := config.SpecialStreakMilestones[streak]; ok {
		milestone = streak
		details = append(details, models.StreakBonus{
			Type:   "milestone",
			Amount: gems,
			Reason: fmt.Sprintf("%d-day streak milestone", streak),
		})
	}
	if streak >= 7 && streak%7 == 0 {
		details = append(details, models.StreakBonus{
			Type:   "weekly",
			Amount: config.WeeklyStreakBonus,
			Reason: fmt.Sprintf("week %d of your streak", streak/7),
		})
	}

	if len(details) == 0 {
		return nil
	}

	total := 0
	for _, bonus := range details {
		total += bonus.Amount
	}
	return &models.StreakReward{
		Type:      "gems",
		Amount:    total,
		Milestone: milestone,
		Details:   details,
	}
}

// persistStreak writes the new streak fields and credits bonus gems as a
// relative increment, conditional on last_activity_date being unchanged since
// our read. Returns false if a concurrent writer got there first.
func (s *StreakService) persistStreak(ctx context.Context, user *models.User, activityDay time.Time, newStreak, newMax, bonusGems int) (result0 bool, err error) {
	ctx, span := observability.TraceStreakFunction(ctx, "persistStreak",
		observability.AttributeUserID(user.ID),
		attribute.Int("streak.new", newStreak),
		attribute.Int("streak.bonus_gems", bonusGems),
	)
	defer observability.FinishSpan(span, &err)

	query := `
		UPDATE users
		SET current_streak = $1,
		    max_streak = $2,
		    last_activity_date = $3,
		    total_gems = total_gems + $4,
		    updated_at = NOW()
		WHERE id = $5 AND last_activity_date IS NOT DISTINCT FROM $6`

	result, err := s.db.ExecContext(ctx, query, newStreak, newMax, activityDay, bonusGems, user.ID, user.LastActivityDate.Time)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to persist streak")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, contextutils.WrapError(err, "failed to check streak update result")
	}
	return affected == 1, nil
}

func (s *StreakService) getUserStreakFields(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	query := `SELECT id, current_streak, max_streak, total_gems, last_activity_date FROM users WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.CurrentStreak, &user.MaxStreak, &user.TotalGems, &user.LastActivityDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrUserNotFound, "user %d not found", userID)
		}
		return nil, contextutils.WrapError(err, "failed to load user streak fields")
	}
	return &user, nil
}
