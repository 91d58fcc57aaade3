package dto

import "time"

// AccessCheckResponseDTO is the access verdict returned to callers
type AccessCheckResponseDTO struct {
	Granted       bool          `json:"granted"`
	Reason        string        `json:"reason"`
	Status        string        `json:"status"`
	PlanID        string        `json:"plan_id,omitempty"`
	DaysRemaining int           `json:"days_remaining"`
	Quota         *QuotaInfoDTO `json:"quota,omitempty"`
}

// QuotaInfoDTO is the quota snapshot inside an access verdict
type QuotaInfoDTO struct {
	Feature    string    `json:"feature"`
	Used       int       `json:"used"`
	Limit      int       `json:"limit"`
	Percentage float64   `json:"percentage"`
	IsOver     bool      `json:"is_over"`
	ResetsAt   time.Time `json:"resets_at,omitempty"`
}
