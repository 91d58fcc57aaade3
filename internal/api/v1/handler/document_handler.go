package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/Iyke200/doculuna/internal/access"
	"github.com/Iyke200/doculuna/internal/api/v1/dto"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/service"
)

// FeatureDocumentProcessing is the quota feature charged for document
// operations.
const FeatureDocumentProcessing = "document_processing"

type DocumentHandler struct {
	docService service.DocumentService
	accessMgr  *access.Manager
	validate   *validator.Validate
}

func NewDocumentHandler(docService service.DocumentService, accessMgr *access.Manager, v *validator.Validate) *DocumentHandler {
	return &DocumentHandler{docService: docService, accessMgr: accessMgr, validate: v}
}

// RegisterRoutes mounts v1 document routes
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/documents/initiate", authMw(http.HandlerFunc(h.initiate)))
	mux.Handle("/documents/complete", authMw(http.HandlerFunc(h.complete)))
	mux.Handle("/documents/download", authMw(http.HandlerFunc(h.download)))
	mux.Handle("/documents/history", authMw(http.HandlerFunc(h.history)))
}

func (h *DocumentHandler) initiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.DocumentInitiateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Explicit gate before any work; the verdict is returned on denial so
	// the client can explain itself to the user.
	verdict := h.accessMgr.CheckAccess(r.Context(), userID, access.CheckOptions{
		Feature:      FeatureDocumentProcessing,
		EnforceQuota: true,
	})
	if !verdict.Granted {
		writeAccessDenied(w, verdict)
		return
	}

	entry, uploadURL, err := h.docService.InitiateOperation(r.Context(), userID, req.Filename, req.FileType, req.Operation, req.FileSizeBytes)
	if err != nil {
		http.Error(w, "Failed to initiate operation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.DocumentInitiateResponseDTO{
		HistoryID: entry.ID,
		UploadURL: uploadURL,
		Status:    entry.Status,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *DocumentHandler) complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.DocumentCompleteDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	verdict := h.accessMgr.CheckAccess(r.Context(), userID, access.CheckOptions{
		Feature:      FeatureDocumentProcessing,
		EnforceQuota: true,
	})
	if !verdict.Granted {
		writeAccessDenied(w, verdict)
		return
	}

	entry, err := h.docService.CompleteUpload(r.Context(), req.HistoryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOperationNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrNotOwner):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, service.ErrAlreadySubmitted):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to complete upload: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// The operation is committed to the pipeline; charge the quota window.
	h.accessMgr.RecordUsage(r.Context(), userID, FeatureDocumentProcessing)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toHistoryDTO(entry))
}

func (h *DocumentHandler) download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}
	historyID := r.URL.Query().Get("history_id")
	if historyID == "" {
		http.Error(w, "history_id query parameter is required", http.StatusBadRequest)
		return
	}

	url, err := h.docService.GetDownloadURL(r.Context(), historyID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOperationNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrNotOwner):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			http.Error(w, "Failed to generate download URL: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.DocumentDownloadResponseDTO{DownloadURL: url})
}

func (h *DocumentHandler) history(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit := 20
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = l
		}
		entries, err := h.docService.ListHistory(r.Context(), userID, limit)
		if err != nil {
			http.Error(w, "Failed to list history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp := make([]dto.HistoryEntryResponseDTO, 0, len(entries))
		for i := range entries {
			resp = append(resp, toHistoryDTO(&entries[i]))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

	case http.MethodDelete:
		n, err := h.docService.DeleteHistory(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to delete history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"deleted": n})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func toHistoryDTO(e *model.OperationHistoryEntry) dto.HistoryEntryResponseDTO {
	return dto.HistoryEntryResponseDTO{
		HistoryID:      e.ID,
		Filename:       e.Filename,
		FileType:       e.FileType,
		Operation:      e.Operation,
		Status:         e.Status,
		FileSizeBytes:  e.FileSizeBytes,
		DurationMs:     e.Duration.Milliseconds(),
		OutputFilename: e.OutputFilename,
		CreatedAt:      e.CreatedAt,
	}
}

// writeAccessDenied maps a denial verdict onto an HTTP status with the full
// verdict in the body.
func writeAccessDenied(w http.ResponseWriter, verdict model.AccessResult) {
	status := http.StatusForbidden
	if verdict.Reason == model.ReasonQuotaExceeded {
		status = http.StatusTooManyRequests
	}
	if verdict.Reason == model.ReasonAccessCheckFailed {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(toAccessDTO(verdict))
}

func toAccessDTO(v model.AccessResult) dto.AccessCheckResponseDTO {
	resp := dto.AccessCheckResponseDTO{
		Granted:       v.Granted,
		Reason:        v.Reason,
		Status:        string(v.Status),
		PlanID:        v.PlanID,
		DaysRemaining: v.DaysRemaining,
	}
	if v.Quota != nil {
		resp.Quota = &dto.QuotaInfoDTO{
			Feature:    v.Quota.Feature,
			Used:       v.Quota.Used,
			Limit:      v.Quota.Limit,
			Percentage: v.Quota.Percentage,
			IsOver:     v.Quota.IsOver,
			ResetsAt:   v.Quota.ResetsAt,
		}
	}
	return resp
}
