package services

import (
	"context"
	"database/sql"

	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// RewardLedgerInterface defines reward crediting operations
type RewardLedgerInterface interface {
	Award(ctx context.Context, userID, xpReward, gemReward int) error
	AwardTx(ctx context.Context, tx *sql.Tx, userID, xpReward, gemReward int) error
	AwardGems(ctx context.Context, userID, gems int) error
}

// RewardLedger credits XP and gems to a user. Callers are responsible for the
// at-most-once guarantee: the ledger must only be invoked on the false→true
// completion transition, inside the same transaction that flips the flag.
type RewardLedger struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewRewardLedger creates a new RewardLedger instance
func NewRewardLedger(db *sql.DB, logger *observability.Logger) *RewardLedger {
	return &RewardLedger{
		db:     db,
		logger: logger,
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Award credits the rewards directly against the database.
func (s *RewardLedger) Award(ctx context.Context, userID, xpReward, gemReward int) (err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "Award",
		observability.AttributeUserID(userID),
		attribute.Int("reward.xp", xpReward),
		attribute.Int("reward.gems", gemReward),
	)
	defer observability.FinishSpan(span, &err)

	return s.award(ctx, s.db, userID, xpReward, gemReward)
}

// AwardTx credits the rewards inside the caller's transaction so the credit
// commits or rolls back together with the completion flip.
func (s *RewardLedger) AwardTx(ctx context.Context, tx *sql.Tx, userID, xpReward, gemReward int) (err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "AwardTx",
		observability.AttributeUserID(userID),
		attribute.Int("reward.xp", xpReward),
		attribute.Int("reward.gems", gemReward),
	)
	defer observability.FinishSpan(span, &err)

	return s.award(ctx, tx, userID, xpReward, gemReward)
}

// AwardGems credits gems only, used by streak bonuses.
func (s *RewardLedger) AwardGems(ctx context.Context, userID, gems int) (err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "AwardGems",
		observability.AttributeUserID(userID),
		attribute.Int("reward.gems", gems),
	)
	defer observability.FinishSpan(span, &err)

	return s.award(ctx, s.db, userID, 0, gems)
}

// award applies the credit as a relative increment so concurrent awards for
// different quests never clobber each other.
func (s *RewardLedger) award(ctx context.Context, ex execer, userID, xpReward, gemReward int) error {
	if xpReward < 0 || gemReward < 0 {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "rewards must be non-negative: xp=%d gems=%d", xpReward, gemReward)
	}
	if xpReward == 0 && gemReward == 0 {
		return nil
	}

	query := `UPDATE users SET total_xp = total_xp + $1, total_gems = total_gems + $2, updated_at = NOW() WHERE id = $3`
	result, err := ex.ExecContext(ctx, query, xpReward, gemReward, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to credit rewards")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check reward update result")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrUserNotFound, "user %d not found", userID)
	}

	s.logger.Info(ctx, "Rewards credited", map[string]interface{}{
		"user_id": userID,
		"xp":      xpReward,
		"gems":    gemReward,
	})
	return nil
}
