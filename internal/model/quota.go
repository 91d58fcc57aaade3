package model

import (
	"time"

	"github.com/Iyke200/doculuna/internal/period"
)

// UnlimitedQuota is the sentinel limit for features without a configured
// policy. Unconfigured features never block users.
const UnlimitedQuota = -1

// QuotaPolicy is the per-feature quota configuration loaded at startup.
type QuotaPolicy struct {
	Feature      string      `json:"feature"`
	FreeLimit    int         `json:"free_limit"`
	PremiumLimit int         `json:"premium_limit"`
	Period       period.Kind `json:"period"`
	// Multiplier scales the premium limit; must be >= 1.0.
	Multiplier float64 `json:"multiplier"`
	// Tracked=false policies meter usage but never block access.
	Tracked bool `json:"tracked"`
}

// QuotaInfo is the usage snapshot attached to an access verdict.
type QuotaInfo struct {
	Feature    string    `json:"feature"`
	Used       int       `json:"used"`
	Limit      int       `json:"limit"`
	Percentage float64   `json:"percentage"`
	IsOver     bool      `json:"is_over"`
	ResetsAt   time.Time `json:"resets_at,omitempty"`
}

// Unlimited reports whether the quota can never block access.
func (q *QuotaInfo) Unlimited() bool {
	return q.Limit <= 0
}
