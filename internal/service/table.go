package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/clock"
	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/store"
	"github.com/dinepos/api/internal/ws"
)

// expiryRetryBase is the first delay before re-attempting a hold
// expiry whose store write failed; the delay doubles per attempt up to
// expiryRetryMax. Expiries are never dropped silently.
const (
	expiryRetryBase = 5 * time.Second
	expiryRetryMax  = time.Minute
)

// TableService owns table occupancy: bind, release, holds with
// automatic expiry, and the reserved state. At most one expiry task is
// pending per table; any manual status change invalidates it, and the
// task itself re-checks the table before mutating anything.
type TableService struct {
	store       store.Store
	hub         Broadcaster
	clock       clock.Clock
	defaultHold time.Duration

	mu     sync.Mutex
	timers map[int]clock.Timer
}

// NewTableService creates a TableService. defaultHoldMinutes applies
// when a hold is requested without an explicit duration.
func NewTableService(st store.Store, hub Broadcaster, clk clock.Clock, defaultHoldMinutes int) *TableService {
	return &TableService{
		store:       st,
		hub:         hub,
		clock:       clk,
		defaultHold: time.Duration(defaultHoldMinutes) * time.Minute,
		timers:      make(map[int]clock.Timer),
	}
}

// Create registers a new physical table, available by default.
func (s *TableService) Create(ctx context.Context, t model.Table) (model.Table, error) {
	if t.Number <= 0 || t.Capacity <= 0 {
		return model.Table{}, fmt.Errorf("table number and capacity must be positive: %w", model.ErrInvalidOrder)
	}
	if t.Status == "" {
		t.Status = enum.TableStatusAvailable
	}
	if !enum.ValidTableStatus(t.Status) {
		return model.Table{}, fmt.Errorf("unknown table status %q: %w", t.Status, model.ErrInvalidTransition)
	}
	now := s.clock.Now()
	t.Version = 0
	t.CurrentOrder = nil
	t.HoldUntil = nil
	t.OccupiedSince = nil
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.store.PutTable(ctx, t)
}

// List returns all tables ordered by number.
func (s *TableService) List(ctx context.Context) ([]model.Table, error) {
	return s.store.ListTables(ctx)
}

// Orders returns the open orders bound to a table.
func (s *TableService) Orders(ctx context.Context, number int) ([]model.Order, error) {
	return s.store.ListOrders(ctx, store.OrderFilter{
		TableNumber:   &number,
		ExcludeStatus: enum.OrderStatusCompleted,
	})
}

// Bind moves an available table to occupied for the given order and
// notifies observers.
func (s *TableService) Bind(ctx context.Context, number int, orderID uuid.UUID) (model.Table, error) {
	t, err := s.bind(ctx, number, orderID)
	if err != nil {
		return model.Table{}, err
	}
	publish(s.hub, EventTableUpdated, t, ws.TopicEvents)
	return t, nil
}

// bind is the unpublished variant used inside order creation, where
// the order.created event already carries the state change.
func (s *TableService) bind(ctx context.Context, number int, orderID uuid.UUID) (model.Table, error) {
	var out model.Table
	err := retryConflict(func() error {
		t, err := s.store.GetTable(ctx, number)
		if err != nil {
			return err
		}
		if t.Status != enum.TableStatusAvailable {
			return fmt.Errorf("table %d is %s: %w", number, t.Status, model.ErrInvalidTransition)
		}
		s.cancelTimer(number)
		now := s.clock.Now()
		t.Status = enum.TableStatusOccupied
		t.CurrentOrder = &orderID
		t.OccupiedSince = &now
		t.HoldUntil = nil
		t.UpdatedAt = now
		out, err = s.store.PutTable(ctx, t)
		return err
	})
	return out, err
}

// Release returns a table to available from any state, clearing the
// bound order, occupancy and hold fields, and notifies observers.
func (s *TableService) Release(ctx context.Context, number int) (model.Table, error) {
	t, err := s.release(ctx, number)
	if err != nil {
		return model.Table{}, err
	}
	publish(s.hub, EventTableUpdated, t, ws.TopicEvents)
	return t, nil
}

func (s *TableService) release(ctx context.Context, number int) (model.Table, error) {
	var out model.Table
	err := retryConflict(func() error {
		t, err := s.store.GetTable(ctx, number)
		if err != nil {
			return err
		}
		s.cancelTimer(number)
		now := s.clock.Now()
		t.Status = enum.TableStatusAvailable
		t.CurrentOrder = nil
		t.OccupiedSince = nil
		t.HoldUntil = nil
		t.UpdatedAt = now
		out, err = s.store.PutTable(ctx, t)
		return err
	})
	return out, err
}

// Hold places an available table on hold for the given duration and
// schedules the automatic release. minutes <= 0 selects the default
// hold duration.
func (s *TableService) Hold(ctx context.Context, number int, minutes int) (model.Table, error) {
	d := time.Duration(minutes) * time.Minute
	if minutes <= 0 {
		d = s.defaultHold
	}
	var out model.Table
	err := retryConflict(func() error {
		t, err := s.store.GetTable(ctx, number)
		if err != nil {
			return err
		}
		if t.Status != enum.TableStatusAvailable {
			return fmt.Errorf("table %d is %s: %w", number, t.Status, model.ErrInvalidTransition)
		}
		now := s.clock.Now()
		until := now.Add(d)
		t.Status = enum.TableStatusHold
		t.HoldUntil = &until
		t.UpdatedAt = now
		out, err = s.store.PutTable(ctx, t)
		return err
	})
	if err != nil {
		return model.Table{}, err
	}
	s.scheduleExpiry(number, d)
	publish(s.hub, EventTableUpdated, out, ws.TopicEvents)
	return out, nil
}

// SetStatus is the general status entry point. Occupied is only
// reachable through Bind, because it requires an order reference.
func (s *TableService) SetStatus(ctx context.Context, number int, status string, holdMinutes int) (model.Table, error) {
	switch status {
	case enum.TableStatusAvailable:
		return s.Release(ctx, number)
	case enum.TableStatusHold:
		return s.Hold(ctx, number, holdMinutes)
	case enum.TableStatusReserved:
		return s.reserve(ctx, number)
	case enum.TableStatusOccupied:
		return model.Table{}, fmt.Errorf("occupied requires an order, use bind: %w", model.ErrInvalidTransition)
	default:
		return model.Table{}, fmt.Errorf("unknown table status %q: %w", status, model.ErrInvalidTransition)
	}
}

func (s *TableService) reserve(ctx context.Context, number int) (model.Table, error) {
	var out model.Table
	err := retryConflict(func() error {
		t, err := s.store.GetTable(ctx, number)
		if err != nil {
			return err
		}
		if t.Status != enum.TableStatusAvailable {
			return fmt.Errorf("table %d is %s: %w", number, t.Status, model.ErrInvalidTransition)
		}
		s.cancelTimer(number)
		now := s.clock.Now()
		t.Status = enum.TableStatusReserved
		t.UpdatedAt = now
		out, err = s.store.PutTable(ctx, t)
		return err
	})
	if err != nil {
		return model.Table{}, err
	}
	publish(s.hub, EventTableUpdated, out, ws.TopicEvents)
	return out, nil
}

// --- hold expiry ---

// scheduleExpiry replaces any pending expiry task for the table.
func (s *TableService) scheduleExpiry(number int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[number]; ok {
		t.Stop()
	}
	s.timers[number] = s.clock.AfterFunc(d, func() {
		s.expire(number, 0)
	})
}

// cancelTimer invalidates a pending expiry; called on every manual
// status change so a stale task cannot clobber it.
func (s *TableService) cancelTimer(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[number]; ok {
		t.Stop()
		delete(s.timers, number)
	}
}

// forgetTimer drops the bookkeeping for a timer that already fired.
func (s *TableService) forgetTimer(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, number)
}

// expire runs at hold deadline. It re-reads the table and only
// releases it if it is still on hold; a manual transition in the
// meantime wins and the expiry is a no-op. A failed store round trip
// is logged and the task rescheduled with backoff.
func (s *TableService) expire(number, attempt int) {
	ctx := context.Background()
	t, err := s.store.GetTable(ctx, number)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.forgetTimer(number)
			return
		}
		s.rescheduleExpiry(number, attempt, err)
		return
	}
	if t.Status != enum.TableStatusHold {
		s.forgetTimer(number)
		return
	}
	now := s.clock.Now()
	t.Status = enum.TableStatusAvailable
	t.HoldUntil = nil
	t.CurrentOrder = nil
	t.OccupiedSince = nil
	t.UpdatedAt = now
	updated, err := s.store.PutTable(ctx, t)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			// A concurrent write landed after our read; whatever it
			// set (or rescheduled) wins.
			s.forgetTimer(number)
			return
		}
		s.rescheduleExpiry(number, attempt, err)
		return
	}
	s.forgetTimer(number)
	publish(s.hub, EventTableUpdated, updated, ws.TopicEvents)
}

func (s *TableService) rescheduleExpiry(number, attempt int, cause error) {
	delay := expiryRetryBase << attempt
	if delay > expiryRetryMax {
		delay = expiryRetryMax
	}
	log.Printf("table %d: hold expiry failed, retrying in %s: %v", number, delay, cause)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[number] = s.clock.AfterFunc(delay, func() {
		s.expire(number, attempt+1)
	})
}
