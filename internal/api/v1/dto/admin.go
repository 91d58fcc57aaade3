package dto

import "time"

// TempAccessGrantDTO is used for incoming admin grant requests
type TempAccessGrantDTO struct {
	UserID        string `json:"user_id" validate:"required"`
	PlanID        string `json:"plan_id" validate:"required"`
	DurationHours int    `json:"duration_hours" validate:"gt=0"`
}

// TempAccessResponseDTO describes an issued grant
type TempAccessResponseDTO struct {
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Reason    string    `json:"reason"`
	GrantedAt time.Time `json:"granted_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
