package dto

// SuggestionResponseDTO is one recommendation in API responses
type SuggestionResponseDTO struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// SuggestionFollowedDTO reports that the caller acted on a suggestion
type SuggestionFollowedDTO struct {
	Category string `json:"category" validate:"required"`
}

// SuggestionRewardResponseDTO is the reward for following a suggestion
type SuggestionRewardResponseDTO struct {
	XPAwarded   int64  `json:"xp_awarded"`
	LeveledUp   bool   `json:"leveled_up"`
	Level       int    `json:"level"`
	Achievement string `json:"achievement,omitempty"`
}
