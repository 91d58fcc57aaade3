package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/model"
)

// A pending entry is claimed exactly once: the guarded update matches one
// row for the first caller and zero for everyone after.
func TestHistoryRepoClaimIsSingleShot(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewHistoryRepo(mock)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE operation_history`).
		WithArgs("h1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	claimed, err := r.Claim(ctx, "h1")
	require.NoError(t, err)
	require.True(t, claimed)

	mock.ExpectExec(`UPDATE operation_history`).
		WithArgs("h1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	claimed, err = r.Claim(ctx, "h1")
	require.NoError(t, err)
	require.False(t, claimed, "second submit must not claim the entry again")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoFinalizeSettlesQueuedEntry(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewHistoryRepo(mock)

	mock.ExpectExec(`UPDATE operation_history`).
		WithArgs("h1", model.OperationSuccess, int64(4200), "out.pdf").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := r.Finalize(context.Background(), "h1", model.OperationSuccess, 4200*time.Millisecond, "out.pdf")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
