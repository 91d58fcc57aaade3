package model

// Access reason codes surfaced to callers. The set is closed; handlers map
// them onto HTTP statuses.
const (
	ReasonAdminOverride        = "admin_override"
	ReasonActiveSubscription   = "active_subscription"
	ReasonTempAccess           = "temp_access"
	ReasonQuotaExceeded        = "quota_exceeded"
	ReasonNoActiveSubscription = "no_active_subscription"
	ReasonAccessCheckFailed    = "access_check_failed"
)

// AccessResult is the verdict of the access decision engine.
type AccessResult struct {
	Granted       bool                  `json:"granted"`
	Reason        string                `json:"reason"`
	Status        SubscriptionStatus    `json:"status"`
	PlanID        string                `json:"plan_id,omitempty"`
	DaysRemaining int                   `json:"days_remaining"`
	TempAccess    *TemporaryAccessGrant `json:"temp_access,omitempty"`
	Quota         *QuotaInfo            `json:"quota,omitempty"`
}
