package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/clock"
	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/pricing"
	"github.com/dinepos/api/internal/sequence"
	"github.com/dinepos/api/internal/store"
	"github.com/dinepos/api/internal/ws"
)

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	Type          string
	TableNumber   *int
	CustomerName  string
	CustomerPhone string
	Notes         string
	CreatedBy     string
	Items         []pricing.ItemRequest
}

// CreateOrderResult is the created order plus the kitchen ticket
// derived from its items, if any.
type CreateOrderResult struct {
	Order  model.Order
	Ticket *model.Ticket
}

// OrderService owns order creation, item addition and status
// transitions, and drives table binding and ticket generation as part
// of those operations.
type OrderService struct {
	store  store.Store
	pricer *pricing.Engine
	seq    *sequence.Generator
	tables *TableService
	hub    Broadcaster
	clock  clock.Clock
}

// NewOrderService creates an OrderService.
func NewOrderService(st store.Store, pricer *pricing.Engine, seq *sequence.Generator, tables *TableService, hub Broadcaster, clk clock.Clock) *OrderService {
	return &OrderService{
		store:  st,
		pricer: pricer,
		seq:    seq,
		tables: tables,
		hub:    hub,
		clock:  clk,
	}
}

// Create validates, prices and persists a new order, binds its table
// for dine-in, derives the first kitchen ticket and notifies
// observers. The order, table bind and ticket form one logical unit:
// if a later step fails, the earlier writes are compensated so no
// half-created order survives.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	items, err := s.pricer.PriceItems(ctx, req.Items, s.store)
	if err != nil {
		return nil, err
	}
	totals := s.pricer.Sum(items)

	now := s.clock.Now()
	number, err := s.seq.Next(ctx, sequence.KindOrder, now)
	if err != nil {
		return nil, err
	}

	order := model.Order{
		ID:            uuid.New(),
		Number:        number,
		Type:          req.Type,
		TableNumber:   req.TableNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		Status:        enum.OrderStatusPending,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentStatus: enum.PaymentStatusPending,
		Notes:         req.Notes,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	persisted, err := s.store.PutOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if req.Type == enum.OrderTypeDineIn {
		if _, err := s.tables.bind(ctx, *req.TableNumber, order.ID); err != nil {
			s.compensateOrder(ctx, order.ID)
			if errors.Is(err, model.ErrInvalidTransition) || errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w", model.ErrInvalidOrder, err)
			}
			return nil, err
		}
	}

	var ticket *model.Ticket
	err = retryConflict(func() error {
		o, err := s.store.GetOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		ticket, persisted, err = s.generateTicket(ctx, o)
		return err
	})
	if err != nil {
		if req.Type == enum.OrderTypeDineIn {
			if _, relErr := s.tables.release(ctx, *req.TableNumber); relErr != nil {
				log.Printf("order %s: compensating table release failed: %v", order.Number, relErr)
			}
		}
		s.compensateOrder(ctx, order.ID)
		return nil, err
	}

	publish(s.hub, EventOrderCreated, persisted, ws.TopicEvents)
	if ticket != nil {
		publish(s.hub, EventTicketCreated, ticket, ws.TopicEvents, ws.TopicKitchen)
	}
	return &CreateOrderResult{Order: persisted, Ticket: ticket}, nil
}

func validateCreate(req CreateOrderRequest) error {
	if !enum.ValidOrderType(req.Type) {
		return fmt.Errorf("unknown order type %q: %w", req.Type, model.ErrInvalidOrder)
	}
	if req.Type == enum.OrderTypeDineIn && req.TableNumber == nil {
		return fmt.Errorf("dine_in requires a table: %w", model.ErrInvalidOrder)
	}
	return validateItems(req.Items)
}

func validateItems(items []pricing.ItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one item is required: %w", model.ErrInvalidOrder)
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("item[%d]: quantity must be >= 1: %w", i, model.ErrInvalidOrder)
		}
	}
	return nil
}

// appendNewLines appends the lines whose ids are not yet on the order.
// A retried attempt re-reads an order that may already contain lines
// committed by the previous attempt; those must not be appended twice.
func appendNewLines(existing, added []model.OrderItem) []model.OrderItem {
	present := make(map[uuid.UUID]bool, len(existing))
	for _, it := range existing {
		present[it.ID] = true
	}
	for _, it := range added {
		if !present[it.ID] {
			existing = append(existing, it)
		}
	}
	return existing
}

func (s *OrderService) compensateOrder(ctx context.Context, id uuid.UUID) {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		log.Printf("order %s: compensating delete failed: %v", id, err)
	}
}

// AddItems prices the new lines once at current menu prices, appends
// them to the order, recomputes the totals over the full item list
// (lines already persisted keep their captured prices) and derives a
// fresh kitchen ticket for the additions. The lines carry their ids
// from the single pricing pass, so a retried attempt appends only the
// lines an earlier attempt has not already committed.
func (s *OrderService) AddItems(ctx context.Context, orderID uuid.UUID, reqs []pricing.ItemRequest) (*CreateOrderResult, error) {
	if err := validateItems(reqs); err != nil {
		return nil, err
	}
	newItems, err := s.pricer.PriceItems(ctx, reqs, s.store)
	if err != nil {
		return nil, err
	}
	var out model.Order
	var ticket *model.Ticket
	err = retryConflict(func() error {
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if enum.OrderStatusTerminal(o.Status) {
			return fmt.Errorf("order %s is %s: %w", o.Number, o.Status, model.ErrInvalidState)
		}
		o.Items = appendNewLines(o.Items, newItems)
		totals := s.pricer.Sum(o.Items)
		o.Subtotal = totals.Subtotal
		o.Tax = totals.Tax
		o.Total = totals.Total
		o.UpdatedAt = s.clock.Now()
		saved, err := s.store.PutOrder(ctx, o)
		if err != nil {
			return err
		}
		ticket, out, err = s.generateTicket(ctx, saved)
		return err
	})
	if err != nil {
		return nil, err
	}
	publish(s.hub, EventOrderUpdated, out, ws.TopicEvents)
	if ticket != nil {
		publish(s.hub, EventTicketCreated, ticket, ws.TopicEvents, ws.TopicKitchen)
	}
	return &CreateOrderResult{Order: out, Ticket: ticket}, nil
}

// SetStatus advances the order through its lifecycle. Completing a
// dine-in order releases its table.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (model.Order, error) {
	var out model.Order
	err := retryConflict(func() error {
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !enum.ValidOrderTransition(o.Status, status) {
			return fmt.Errorf("order %s: %s -> %s: %w", o.Number, o.Status, status, model.ErrInvalidTransition)
		}
		o.Status = status
		o.UpdatedAt = s.clock.Now()
		out, err = s.store.PutOrder(ctx, o)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	if status == enum.OrderStatusCompleted && out.Type == enum.OrderTypeDineIn && out.TableNumber != nil {
		if _, err := s.tables.release(ctx, *out.TableNumber); err != nil && !errors.Is(err, model.ErrNotFound) {
			return model.Order{}, fmt.Errorf("release table %d: %w", *out.TableNumber, err)
		}
	}

	publish(s.hub, EventOrderUpdated, out, ws.TopicEvents)
	return out, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (model.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// List returns orders matching the filter, newest first.
func (s *OrderService) List(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	return s.store.ListOrders(ctx, f)
}

// generateTicket derives one kitchen ticket from the order's pending,
// not-yet-ticketed items. If there are none it returns the order
// unchanged; that is a normal outcome, not an error. The items are
// marked ticketed and the ticket reference is appended to the order,
// so re-invocation is idempotent.
func (s *OrderService) generateTicket(ctx context.Context, order model.Order) (*model.Ticket, model.Order, error) {
	var pending []model.TicketItem
	for _, it := range order.Items {
		if it.Status == enum.ItemStatusPending && !it.Ticketed {
			pending = append(pending, model.TicketItem{
				ID:         uuid.New(),
				MenuItemID: it.MenuItemID,
				Name:       it.Name,
				Quantity:   it.Quantity,
				Notes:      it.Notes,
				Status:     enum.ItemStatusPending,
			})
		}
	}
	if len(pending) == 0 {
		return nil, order, nil
	}

	now := s.clock.Now()
	number, err := s.seq.Next(ctx, sequence.KindTicket, now)
	if err != nil {
		return nil, order, err
	}
	ticket := model.Ticket{
		ID:          uuid.New(),
		Number:      number,
		OrderID:     order.ID,
		TableNumber: order.TableNumber,
		Items:       pending,
		Status:      enum.TicketStatusPending,
		Priority:    enum.TicketPriorityNormal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.store.PutTicket(ctx, ticket)
	if err != nil {
		return nil, order, fmt.Errorf("persist ticket: %w", err)
	}

	for i := range order.Items {
		if order.Items[i].Status == enum.ItemStatusPending && !order.Items[i].Ticketed {
			order.Items[i].Ticketed = true
		}
	}
	order.TicketIDs = append(order.TicketIDs, ticket.ID)
	order.UpdatedAt = now
	updated, err := s.store.PutOrder(ctx, order)
	if err != nil {
		// Roll the orphaned ticket back so the order and its tickets
		// cannot diverge.
		stored.Status = enum.TicketStatusCancelled
		stored.UpdatedAt = now
		if _, cErr := s.store.PutTicket(ctx, stored); cErr != nil {
			log.Printf("ticket %s: compensating cancel failed: %v", stored.Number, cErr)
		}
		return nil, order, fmt.Errorf("attach ticket to order: %w", err)
	}
	return &stored, updated, nil
}
