package dto

import "time"

// BillingEventDTO is an incoming subscription lifecycle event
type BillingEventDTO struct {
	Kind      string     `json:"kind" validate:"required"`
	UserID    string     `json:"user_id" validate:"required"`
	PlanID    string     `json:"plan_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
