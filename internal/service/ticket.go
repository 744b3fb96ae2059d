package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/clock"
	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/store"
	"github.com/dinepos/api/internal/ws"
)

// TicketService owns kitchen ticket progress: per-item preparation
// status, ticket completion and priority. Item status changes are
// mirrored back onto the owning order's lines so the two views never
// diverge.
type TicketService struct {
	store store.Store
	hub   Broadcaster
	clock clock.Clock
}

// NewTicketService creates a TicketService.
func NewTicketService(st store.Store, hub Broadcaster, clk clock.Clock) *TicketService {
	return &TicketService{store: st, hub: hub, clock: clk}
}

// SetItemStatus writes the new status on the ticket item, completes
// the ticket once every item is ready, records ServedTime once every
// item has been served, and propagates the status onto the matching
// order lines (same menu item within the owning order).
//
// An unknown item id is ignored and the unmodified ticket returned;
// callers have historically relied on this, so it is only logged.
func (s *TicketService) SetItemStatus(ctx context.Context, ticketID, itemID uuid.UUID, status, preparedBy string) (model.Ticket, error) {
	if !enum.ValidItemStatus(status) {
		return model.Ticket{}, fmt.Errorf("unknown item status %q: %w", status, model.ErrInvalidTransition)
	}
	var out model.Ticket
	changed := false
	err := retryConflict(func() error {
		t, err := s.store.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range t.Items {
			if t.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			log.Printf("ticket %s: item %s not found, ignoring status update", t.Number, itemID)
			out = t
			changed = false
			return nil
		}
		changed = true
		now := s.clock.Now()
		t.Items[idx].Status = status
		if preparedBy != "" {
			t.PreparedBy = preparedBy
		}
		if t.Status == enum.TicketStatusPending && status == enum.ItemStatusPreparing {
			t.Status = enum.TicketStatusPreparing
		}
		if allItemsReady(t.Items) && t.Status != enum.TicketStatusCompleted {
			t.Status = enum.TicketStatusCompleted
			t.PreparedTime = &now
		}
		if allItemsServed(t.Items) && t.ServedTime == nil {
			t.ServedTime = &now
		}
		t.UpdatedAt = now
		out, err = s.store.PutTicket(ctx, t)
		if err != nil {
			return err
		}
		return s.propagate(ctx, out, t.Items[idx].MenuItemID, status)
	})
	if err != nil {
		return model.Ticket{}, err
	}
	if changed {
		publish(s.hub, EventTicketUpdated, out, ws.TopicEvents, ws.TopicKitchen)
	}
	return out, nil
}

// allItemsReady treats served as past ready, so items marked served
// out of order still complete the ticket.
func allItemsReady(items []model.TicketItem) bool {
	for _, it := range items {
		if it.Status != enum.ItemStatusReady && it.Status != enum.ItemStatusServed {
			return false
		}
	}
	return true
}

func allItemsServed(items []model.TicketItem) bool {
	for _, it := range items {
		if it.Status != enum.ItemStatusServed {
			return false
		}
	}
	return true
}

// propagate mirrors a ticket item's status onto the order lines for
// the same menu item. Cancelled order lines are left alone.
func (s *TicketService) propagate(ctx context.Context, t model.Ticket, menuItemID uuid.UUID, status string) error {
	o, err := s.store.GetOrder(ctx, t.OrderID)
	if err != nil {
		return fmt.Errorf("propagate to order: %w", err)
	}
	touched := false
	for i := range o.Items {
		if o.Items[i].MenuItemID == menuItemID && o.Items[i].Status != enum.ItemStatusCancelled {
			if o.Items[i].Status != status {
				o.Items[i].Status = status
				touched = true
			}
		}
	}
	if !touched {
		return nil
	}
	o.UpdatedAt = s.clock.Now()
	if _, err := s.store.PutOrder(ctx, o); err != nil {
		return fmt.Errorf("propagate to order: %w", err)
	}
	return nil
}

// SetPriority switches a ticket between normal and urgent handling.
func (s *TicketService) SetPriority(ctx context.Context, ticketID uuid.UUID, priority string) (model.Ticket, error) {
	if !enum.ValidTicketPriority(priority) {
		return model.Ticket{}, fmt.Errorf("unknown priority %q: %w", priority, model.ErrInvalidTransition)
	}
	var out model.Ticket
	err := retryConflict(func() error {
		t, err := s.store.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		t.Priority = priority
		t.UpdatedAt = s.clock.Now()
		out, err = s.store.PutTicket(ctx, t)
		return err
	})
	if err != nil {
		return model.Ticket{}, err
	}
	publish(s.hub, EventTicketPriorityUpdated, out, ws.TopicEvents, ws.TopicKitchen)
	return out, nil
}

// Get returns one ticket.
func (s *TicketService) Get(ctx context.Context, ticketID uuid.UUID) (model.Ticket, error) {
	return s.store.GetTicket(ctx, ticketID)
}

// List returns tickets, optionally narrowed to one status, oldest
// first.
func (s *TicketService) List(ctx context.Context, status string) ([]model.Ticket, error) {
	f := store.TicketFilter{}
	if status != "" {
		f.Statuses = []string{status}
	}
	return s.store.ListTickets(ctx, f)
}

// ListPending returns the kitchen work queue: pending and preparing
// tickets, urgent first, then oldest first.
func (s *TicketService) ListPending(ctx context.Context) ([]model.Ticket, error) {
	tickets, err := s.store.ListTickets(ctx, store.TicketFilter{
		Statuses: []string{enum.TicketStatusPending, enum.TicketStatusPreparing},
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		ui := tickets[i].Priority == enum.TicketPriorityUrgent
		uj := tickets[j].Priority == enum.TicketPriorityUrgent
		if ui != uj {
			return ui
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}
