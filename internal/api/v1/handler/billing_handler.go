package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Iyke200/doculuna/internal/access"
	"github.com/Iyke200/doculuna/internal/api/v1/dto"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/service"
)

// BillingHandler receives already-authenticated subscription lifecycle
// events. The payment gateway integration lives outside this service; only
// admin callers may post events here.
type BillingHandler struct {
	billing   *service.BillingService
	accessMgr *access.Manager
	validate  *validator.Validate
}

func NewBillingHandler(billing *service.BillingService, accessMgr *access.Manager, v *validator.Validate) *BillingHandler {
	return &BillingHandler{billing: billing, accessMgr: accessMgr, validate: v}
}

// RegisterRoutes mounts v1 billing routes
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/billing/events", authMw(http.HandlerFunc(h.event)))
}

func (h *BillingHandler) event(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	callerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}
	if !h.accessMgr.IsAdmin(callerID) {
		http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
		return
	}

	var req dto.BillingEventDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.billing.Apply(r.Context(), service.BillingEvent{
		Kind:      service.BillingEventKind(req.Kind),
		UserID:    req.UserID,
		PlanID:    req.PlanID,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnhandledBillingEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to apply billing event: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
