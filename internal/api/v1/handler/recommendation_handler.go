package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Iyke200/doculuna/internal/api/v1/dto"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/recommend"
)

type RecommendationHandler struct {
	engine   *recommend.Engine
	validate *validator.Validate
}

func NewRecommendationHandler(engine *recommend.Engine, v *validator.Validate) *RecommendationHandler {
	return &RecommendationHandler{engine: engine, validate: v}
}

// RegisterRoutes mounts v1 suggestion routes
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/suggestions", authMw(http.HandlerFunc(h.suggest)))
	mux.Handle("/suggestions/followed", authMw(http.HandlerFunc(h.followed)))
}

func (h *RecommendationHandler) suggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	s := h.engine.AnalyzeAndSuggest(r.Context(), userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.SuggestionResponseDTO{
		Category:   s.Category,
		Confidence: s.Confidence,
		Message:    s.Message,
	})
}

func (h *RecommendationHandler) followed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.SuggestionFollowedDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	reward := h.engine.RewardFollowed(r.Context(), userID, req.Category)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.SuggestionRewardResponseDTO{
		XPAwarded:   reward.XPAwarded,
		LeveledUp:   reward.LeveledUp,
		Level:       reward.Level,
		Achievement: reward.Achievement,
	})
}
