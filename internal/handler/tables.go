package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dinepos/api/internal/model"
)

// TableServicer defines the service methods needed by table handlers.
type TableServicer interface {
	Create(ctx context.Context, t model.Table) (model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	Orders(ctx context.Context, number int) ([]model.Order, error)
	Bind(ctx context.Context, number int, orderID uuid.UUID) (model.Table, error)
	Release(ctx context.Context, number int) (model.Table, error)
	Hold(ctx context.Context, number int, minutes int) (model.Table, error)
	SetStatus(ctx context.Context, number int, status string, holdMinutes int) (model.Table, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	svc TableServicer
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer) *TableHandler {
	return &TableHandler{svc: svc}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Table creation is additionally role-gated at the router level.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{number}/status", h.UpdateStatus)
	r.Post("/{number}/hold", h.Hold)
	r.Post("/{number}/release", h.Release)
	r.Post("/{number}/bind", h.Bind)
	r.Get("/{number}/orders", h.Orders)
}

type createTableRequest struct {
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Section  string `json:"section"`
	Waiter   string `json:"waiter"`
}

type tableStatusRequest struct {
	Status      string `json:"status"`
	HoldMinutes int    `json:"hold_minutes"`
}

type holdRequest struct {
	Minutes int `json:"minutes"`
}

type bindRequest struct {
	OrderID string `json:"order_id"`
}

func tableNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	table, err := h.svc.Create(r.Context(), model.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Section:  req.Section,
		Waiter:   req.Waiter,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

// UpdateStatus handles PATCH /tables/{number}/status.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	n, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	table, err := h.svc.SetStatus(r.Context(), n, req.Status, req.HoldMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Hold handles POST /tables/{number}/hold.
func (h *TableHandler) Hold(w http.ResponseWriter, r *http.Request) {
	n, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	var req holdRequest
	if r.Body != nil {
		// Body is optional; zero minutes means the default hold.
		json.NewDecoder(r.Body).Decode(&req)
	}
	table, err := h.svc.Hold(r.Context(), n, req.Minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Release handles POST /tables/{number}/release.
func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request) {
	n, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	table, err := h.svc.Release(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Bind handles POST /tables/{number}/bind.
func (h *TableHandler) Bind(w http.ResponseWriter, r *http.Request) {
	n, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}
	table, err := h.svc.Bind(r.Context(), n, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Orders handles GET /tables/{number}/orders.
func (h *TableHandler) Orders(w http.ResponseWriter, r *http.Request) {
	n, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	orders, err := h.svc.Orders(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
