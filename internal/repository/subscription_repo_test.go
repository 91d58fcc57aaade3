package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/model"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return mock
}

func TestSubscriptionRepoGet(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewSubscriptionRepo(mock)
	ctx := context.Background()

	expiry := time.Now().Add(24 * time.Hour)
	mock.ExpectQuery(`SELECT user_id, plan_id, status, expires_at, created_at, updated_at`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "plan_id", "status", "expires_at", "created_at", "updated_at"}).
			AddRow("u1", "premium_monthly", model.SubscriptionActive, &expiry, time.Now(), time.Now()))

	sub, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "premium_monthly", sub.PlanID)
	require.True(t, sub.IsPremium())

	mock.ExpectQuery(`SELECT user_id, plan_id, status, expires_at, created_at, updated_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	sub, err = r.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, sub, "absent subscription reads as nil, not an error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepoMarkExpired(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewSubscriptionRepo(mock)

	mock.ExpectExec(`UPDATE user_subscriptions`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.MarkExpired(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepoExpireLapsed(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewSubscriptionRepo(mock)
	now := time.Now()

	mock.ExpectExec(`UPDATE user_subscriptions`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	n, err := r.ExpireLapsed(context.Background(), now)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAchievementRepoUnlockIdempotent(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewAchievementRepo(mock)
	ctx := context.Background()
	at := time.Now()

	mock.ExpectExec(`INSERT INTO achievement_unlocks`).
		WithArgs("u1", "sustained_engagement", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	fresh, err := r.Unlock(ctx, "u1", "sustained_engagement", at)
	require.NoError(t, err)
	require.True(t, fresh)

	// Second unlock conflicts; zero rows affected means no-op.
	mock.ExpectExec(`INSERT INTO achievement_unlocks`).
		WithArgs("u1", "sustained_engagement", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	fresh, err = r.Unlock(ctx, "u1", "sustained_engagement", at)
	require.NoError(t, err)
	require.False(t, fresh)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantRepoGetActiveLazilyDeletesExpired(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewGrantRepo(mock)
	ctx := context.Background()
	now := time.Now()

	granted := now.Add(-2 * time.Hour)
	expired := now.Add(-time.Hour)
	mock.ExpectQuery(`SELECT user_id, plan_id, reason, granted_at, expires_at`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "plan_id", "reason", "granted_at", "expires_at"}).
			AddRow("u1", "premium_monthly", model.GrantGracePeriod, granted, expired))
	mock.ExpectExec(`DELETE FROM temp_access_grants`).
		WithArgs("u1", now).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	g, err := r.GetActive(ctx, "u1", now)
	require.NoError(t, err)
	require.Nil(t, g, "expired grant is treated as absent")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressionRepoApplyLocksRow(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewProgressionRepo(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, xp, level, rank, streak, last_activity, moons, created_at, updated_at FROM user_progression WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "xp", "level", "rank", "streak", "last_activity", "moons", "created_at", "updated_at"}).
			AddRow("u1", int64(100), 2, "novice", 1, nil, int64(10), time.Now(), time.Now()))
	mock.ExpectExec(`UPDATE user_progression`).
		WithArgs("u1", int64(600), 3, "novice", 1, (*time.Time)(nil), int64(25)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	rec, err := r.Apply(ctx, "u1", func(rec *model.ProgressionRecord) error {
		rec.XP = 600
		rec.Level = 3
		rec.Moons = 25
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 600, rec.XP)
	require.NoError(t, mock.ExpectationsWereMet())
}
