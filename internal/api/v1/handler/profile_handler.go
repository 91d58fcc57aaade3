package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/Iyke200/doculuna/internal/api/v1/dto"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/progression"
	"github.com/Iyke200/doculuna/internal/service"
)

type ProfileHandler struct {
	engine      *progression.Engine
	userService service.UserService
	validate    *validator.Validate
}

func NewProfileHandler(engine *progression.Engine, userService service.UserService, v *validator.Validate) *ProfileHandler {
	return &ProfileHandler{engine: engine, userService: userService, validate: v}
}

// RegisterRoutes mounts v1 profile routes
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/profile", authMw(http.HandlerFunc(h.profile)))
	mux.Handle("/profile/streak", authMw(http.HandlerFunc(h.streak)))
	mux.Handle("/profile/referrer", authMw(http.HandlerFunc(h.referrer)))
	mux.Handle("/leaderboard", authMw(http.HandlerFunc(h.leaderboard)))
}

func (h *ProfileHandler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	p, err := h.engine.GetProfile(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to load profile: "+err.Error(), http.StatusInternalServerError)
		return
	}
	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to load profile: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.ProfileResponseDTO{
		UserID:       p.UserID,
		XP:           p.XP,
		Level:        p.Level,
		Rank:         p.Rank,
		NextLevelXP:  p.NextLevelXP,
		Streak:       p.Streak,
		Moons:        p.Moons,
		LastActivity: p.LastActivity,
		ReferredBy:   user.ReferredBy,
		Achievements: make([]dto.AchievementDTO, 0, len(p.Achievements)),
	}
	for _, a := range p.Achievements {
		resp.Achievements = append(resp.Achievements, dto.AchievementDTO{
			Name:       a.Achievement,
			UnlockedAt: a.UnlockedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *ProfileHandler) streak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	res := h.engine.UpdateStreak(r.Context(), userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.StreakResponseDTO{
		Streak:      res.Streak,
		Increased:   res.Increased,
		BonusMoons:  res.BonusMoons,
		Achievement: res.Achievement,
	})
}

func (h *ProfileHandler) referrer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ReferrerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ReferrerID == userID {
		http.Error(w, "Cannot refer yourself", http.StatusBadRequest)
		return
	}

	if err := h.userService.SetReferrer(r.Context(), userID, req.ReferrerID); err != nil {
		http.Error(w, "Failed to set referrer: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.engine.GetLeaderboard(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to load leaderboard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.LeaderboardEntryDTO, 0, len(records))
	for _, rec := range records {
		resp = append(resp, dto.LeaderboardEntryDTO{
			UserID: rec.UserID,
			XP:     rec.XP,
			Level:  rec.Level,
			Rank:   rec.Rank,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
