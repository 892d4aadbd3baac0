package services

import (
	"context"
	"testing"

	"questengine/internal/config"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRewardLedger(t *testing.T) (*RewardLedger, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}

	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewRewardLedger(db, logger), mock, cleanup
}

func TestRewardLedger_Award(t *testing.T) {
	ledger, mock, cleanup := newTestRewardLedger(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET total_xp").
		WithArgs(60, 10, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ledger.Award(context.Background(), 42, 60, 10))
}

func TestRewardLedger_AwardZeroIsNoop(t *testing.T) {
	ledger, _, cleanup := newTestRewardLedger(t)
	defer cleanup()

	// No database expectations: nothing should be executed.
	require.NoError(t, ledger.Award(context.Background(), 42, 0, 0))
}

func TestRewardLedger_AwardNegativeRejected(t *testing.T) {
	ledger, _, cleanup := newTestRewardLedger(t)
	defer cleanup()

	err := ledger.Award(context.Background(), 42, -10, 5)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestRewardLedger_AwardUnknownUser(t *testing.T) {
	ledger, mock, cleanup := newTestRewardLedger(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET total_xp").
		WithArgs(60, 10, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.Award(context.Background(), 99, 60, 10)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrUserNotFound))
}

func TestRewardLedger_AwardGems(t *testing.T) {
	ledger, mock, cleanup := newTestRewardLedger(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET total_xp").
		WithArgs(0, 15, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ledger.AwardGems(context.Background(), 42, 15))
}

func TestRewardLedger_AwardTxUsesTransaction(t *testing.T) {
	ledger, mock, cleanup := newTestRewardLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET total_xp").
		WithArgs(50, 5, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := ledger.db.Begin()
	require.NoError(t, err)
	require.NoError(t, ledger.AwardTx(context.Background(), tx, 42, 50, 5))
	require.NoError(t, tx.Commit())
}
