package quota

import (
	"encoding/json"
	"fmt"

	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/period"
)

// ParsePolicies decodes the startup quota-policy configuration. Policies are
// validated here so a bad deploy fails at boot rather than at request time.
func ParsePolicies(raw string) ([]model.QuotaPolicy, error) {
	if raw == "" {
		return nil, nil
	}
	var policies []model.QuotaPolicy
	if err := json.Unmarshal([]byte(raw), &policies); err != nil {
		return nil, fmt.Errorf("decode quota policies: %w", err)
	}
	for i, p := range policies {
		if p.Feature == "" {
			return nil, fmt.Errorf("policy %d: feature name is required", i)
		}
		if p.FreeLimit < 0 || p.PremiumLimit < 0 {
			return nil, fmt.Errorf("policy %q: limits must be non-negative", p.Feature)
		}
		if _, err := period.Parse(string(p.Period)); err != nil {
			return nil, fmt.Errorf("policy %q: %w", p.Feature, err)
		}
		if p.Multiplier != 0 && p.Multiplier < 1.0 {
			return nil, fmt.Errorf("policy %q: multiplier must be >= 1.0", p.Feature)
		}
	}
	return policies, nil
}
