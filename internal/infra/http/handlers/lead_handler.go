package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/attribution"
	"github.com/xavierca1/edconsult-leads/internal/infra/http/middleware"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

const maxLeadBodyBytes = 64 << 10

type LeadCapturer interface {
	Execute(ctx context.Context, input usecase.CaptureLeadInput) (*usecase.CaptureLeadOutput, error)
}

type LeadHandler struct {
	captureLead LeadCapturer
}

func NewLeadHandler(uc LeadCapturer) *LeadHandler {
	return &LeadHandler{captureLead: uc}
}

// CaptureLead handles POST /api/leads.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLeadBodyBytes)

	var input usecase.CaptureLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RecordLeadCapture(string(usecase.CodeInvalidInput))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, "Request body too large")
			return
		}
		writeBadRequest(w, "Invalid JSON")
		return
	}
	input.Request = attribution.FromHTTP(r, time.Time{})

	out, err := h.captureLead.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordLeadCapture(strings.ToLower(string(usecase.CodeOf(err))))
		writeErrorResponse(w, err)
		return
	}

	middleware.RecordLeadCapture("created")
	writeJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Message: "Thank you! Our counsellors will contact you shortly.",
		Data:    out,
	})
}
