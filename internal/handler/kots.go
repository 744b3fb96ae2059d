package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dinepos/api/internal/model"
)

// TicketServicer defines the service methods needed by KOT handlers.
type TicketServicer interface {
	SetItemStatus(ctx context.Context, ticketID, itemID uuid.UUID, status, preparedBy string) (model.Ticket, error)
	SetPriority(ctx context.Context, ticketID uuid.UUID, priority string) (model.Ticket, error)
	Get(ctx context.Context, ticketID uuid.UUID) (model.Ticket, error)
	List(ctx context.Context, status string) ([]model.Ticket, error)
	ListPending(ctx context.Context) ([]model.Ticket, error)
}

// TicketHandler handles kitchen order ticket endpoints.
type TicketHandler struct {
	svc TicketServicer
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(svc TicketServicer) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// RegisterRoutes registers KOT endpoints on the given Chi router.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/pending", h.ListPending)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/items/{itemID}/status", h.UpdateItemStatus)
	r.Patch("/{id}/priority", h.UpdatePriority)
}

type itemStatusRequest struct {
	Status     string `json:"status"`
	PreparedBy string `json:"prepared_by"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

// List handles GET /kots?status=.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// ListPending handles GET /kots/pending, the kitchen work queue.
func (h *TicketHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Get handles GET /kots/{id}.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid KOT ID"})
		return
	}
	ticket, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// UpdateItemStatus handles PATCH /kots/{id}/items/{itemID}/status.
func (h *TicketHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid KOT ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	var req itemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	ticket, err := h.svc.SetItemStatus(r.Context(), id, itemID, req.Status, req.PreparedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// UpdatePriority handles PATCH /kots/{id}/priority.
func (h *TicketHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid KOT ID"})
		return
	}
	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Priority == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priority is required"})
		return
	}
	ticket, err := h.svc.SetPriority(r.Context(), id, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
