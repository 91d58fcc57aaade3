package repository

import (
	"context"
	"fmt"

	"github.com/Iyke200/doculuna/internal/model"
)

// DLQRepository persists processing jobs that exhausted their retries.
type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	pool PgxPool
}

// NewDLQRepo creates a new DLQRepository.
func NewDLQRepo(pool PgxPool) DLQRepository {
	return &dlqRepository{pool: pool}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	const q = `
        INSERT INTO dead_letter_messages (queue, message_id, payload, reason, status)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.pool.Exec(ctx, q,
		message.Queue,
		message.MessageID,
		message.Payload,
		message.Reason,
		message.Status,
	)
	if err != nil {
		return fmt.Errorf("persist dead letter for queue %s: %w", message.Queue, err)
	}
	return nil
}
