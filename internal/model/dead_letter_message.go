package model

import "time"

// DeadLetterMessage represents a processing job that exhausted its retries
// and was persisted for later inspection or replay.
type DeadLetterMessage struct {
	ID        string    `db:"id"`
	Queue     string    `db:"queue"`
	MessageID int64     `db:"message_id"`
	Payload   string    `db:"payload"` // raw JSON job payload
	Reason    string    `db:"reason"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
