package repository

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/model"
)

// message_id carries pgmq's numeric identifier; the insert must bind it as
// an int64, matching the BIGINT column.
func TestDLQRepoCreateBindsNumericMessageID(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	r := NewDLQRepo(mock)

	mock.ExpectExec(`INSERT INTO dead_letter_messages`).
		WithArgs("document_processing_queue", int64(42), `{"history_id":"h1"}`, "status 502: bad gateway", "pending").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Create(context.Background(), &model.DeadLetterMessage{
		Queue:     "document_processing_queue",
		MessageID: 42,
		Payload:   `{"history_id":"h1"}`,
		Reason:    "status 502: bad gateway",
		Status:    "pending",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
