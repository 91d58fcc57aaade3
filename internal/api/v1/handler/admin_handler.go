package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Iyke200/doculuna/internal/access"
	"github.com/Iyke200/doculuna/internal/api/v1/dto"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/model"
)

type AdminHandler struct {
	accessMgr *access.Manager
	validate  *validator.Validate
}

func NewAdminHandler(accessMgr *access.Manager, v *validator.Validate) *AdminHandler {
	return &AdminHandler{accessMgr: accessMgr, validate: v}
}

// RegisterRoutes mounts v1 admin routes. Every route requires the caller to
// be in the admin override set.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/grants", authMw(http.HandlerFunc(h.grants)))
	mux.Handle("/admin/access-check", authMw(http.HandlerFunc(h.accessCheck)))
}

// requireAdmin resolves the caller and rejects non-admins. Returns the
// caller's user ID and whether the request may proceed.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	if !h.accessMgr.IsAdmin(userID) {
		http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
		return "", false
	}
	return userID, true
}

func (h *AdminHandler) grants(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req dto.TempAccessGrantDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}

		g, err := h.accessMgr.GrantTempAccess(r.Context(), req.UserID, req.PlanID,
			time.Duration(req.DurationHours)*time.Hour, model.GrantAdmin)
		if err != nil {
			http.Error(w, "Failed to grant access: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.TempAccessResponseDTO{
			UserID:    g.UserID,
			PlanID:    g.PlanID,
			Reason:    string(g.Reason),
			GrantedAt: g.GrantedAt,
			ExpiresAt: g.ExpiresAt,
		})

	case http.MethodDelete:
		targetID := r.URL.Query().Get("user_id")
		if targetID == "" {
			http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
			return
		}
		if err := h.accessMgr.RevokeTempAccess(r.Context(), targetID); err != nil {
			http.Error(w, "Failed to revoke access: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// accessCheck lets admins inspect another user's access verdict without
// charging their quota.
func (h *AdminHandler) accessCheck(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	targetID := r.URL.Query().Get("user_id")
	if targetID == "" {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	verdict := h.accessMgr.CheckAccess(r.Context(), targetID, access.CheckOptions{
		Feature: r.URL.Query().Get("feature"),
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccessDTO(verdict))
}
