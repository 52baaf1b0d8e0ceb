package handler

import (
	"context"
	"net/http"

	"grievance/models"
	"grievance/service"
)

// Sweeper runs one overdue sweep on demand
type Sweeper interface {
	RunNow(ctx context.Context) (models.SweepSummary, error)
}

// EscalationHandler handles HTTP requests for escalation operations
type EscalationHandler struct {
	escalationService *service.EscalationService
	sweeper           Sweeper
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(escalationService *service.EscalationService, sweeper Sweeper) *EscalationHandler {
	return &EscalationHandler{
		escalationService: escalationService,
		sweeper:           sweeper,
	}
}

// Escalate handles POST /api/v1/complaints/{id}/escalate
func (h *EscalationHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.EscalateComplaintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.escalationService.Escalate(r.Context(), complaintID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// History handles GET /api/v1/complaints/{id}/escalation-history
func (h *EscalationHandler) History(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	records, err := h.escalationService.ViewHistory(r.Context(), complaintID, viewerOf(caller))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, escalationResponses(records))
}

// Unresolved handles GET /api/v1/escalations/unresolved
func (h *EscalationHandler) Unresolved(w http.ResponseWriter, r *http.Request) {
	records, err := h.escalationService.Unresolved(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, escalationResponses(records))
}

// Resolve handles POST /api/v1/escalations/{id}/resolve
func (h *EscalationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	escalationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	record, err := h.escalationService.ResolveEscalation(r.Context(), escalationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewEscalationResponse(record))
}

// Sweep handles POST /api/v1/escalations/sweep
// Runs one overdue sweep immediately; the hourly scanner keeps its own schedule.
func (h *EscalationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweeper.RunNow(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func escalationResponses(records []models.ComplaintEscalation) []models.EscalationResponse {
	out := make([]models.EscalationResponse, 0, len(records))
	for i := range records {
		out = append(out, models.NewEscalationResponse(&records[i]))
	}
	return out
}
