package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

type LeadStatusUpdater interface {
	Execute(ctx context.Context, input usecase.UpdateLeadStatusInput) (*usecase.UpdateLeadStatusOutput, error)
}

type LeadStatusHandler struct {
	updateStatus LeadStatusUpdater
}

func NewLeadStatusHandler(uc LeadStatusUpdater) *LeadStatusHandler {
	return &LeadStatusHandler{updateStatus: uc}
}

// UpdateStatus handles PATCH /admin/leads/{id}/status.
func (h *LeadStatusHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<10)

	var input usecase.UpdateLeadStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	out, err := h.updateStatus.Execute(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: out})
}
