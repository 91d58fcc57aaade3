package model

import "time"

// User represents a user in the system. Rows are created lazily the first
// time a subject is seen and are never hard-deleted by the system.
type User struct {
	UserID string `db:"user_id" json:"user_id"`
	// Name and Email are optional profile details; lazily-created rows
	// carry neither, so both columns are nullable.
	Name       *string   `db:"name" json:"name,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	ReferredBy *string   `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
