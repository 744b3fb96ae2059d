// Package store defines the record store contract the coordination
// engine runs against: versioned read-modify-write per entity plus an
// atomic per-day sequence counter. Two implementations are provided,
// an in-memory store used by tests and local development, and a
// Postgres store used in production.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/model"
)

// Record kinds, used as namespaces for storage keys and sequence
// counters.
const (
	KindTable    = "table"
	KindOrder    = "order"
	KindTicket   = "ticket"
	KindMenuItem = "menu_item"
)

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	Status        string
	ExcludeStatus string
	Type          string
	TableNumber   *int
	Since         *time.Time // created_at >= Since
	Until         *time.Time // created_at < Until
}

// TicketFilter narrows ListTickets.
type TicketFilter struct {
	Statuses []string
}

// Store is the durable source of truth for tables, orders, tickets
// and the menu catalog.
//
// Every Put is a compare-and-swap on the entity's Version field: the
// write succeeds only if the stored version equals the given one, and
// the stored copy (returned to the caller) carries Version+1. A new
// entity must be written with Version 0. A mismatch fails with
// model.ErrConflict; infrastructure failures wrap
// model.ErrStoreUnavailable.
type Store interface {
	GetTable(ctx context.Context, number int) (model.Table, error)
	PutTable(ctx context.Context, t model.Table) (model.Table, error)
	ListTables(ctx context.Context) ([]model.Table, error)

	GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error)
	PutOrder(ctx context.Context, o model.Order) (model.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error)
	// DeleteOrder exists solely so createOrder can compensate a failed
	// table bind; completed orders are archived, never deleted.
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error)
	PutTicket(ctx context.Context, t model.Ticket) (model.Ticket, error)
	ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error)

	GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error)
	PutMenuItem(ctx context.Context, m model.MenuItem) (model.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)

	// NextSequence atomically reserves and returns the next counter
	// value (starting at 1) for the given kind on the calendar day of
	// asOf. Concurrent callers never observe the same value.
	NextSequence(ctx context.Context, kind string, asOf time.Time) (int, error)
}

// matchOrder reports whether o passes the filter. Shared by the
// in-memory store; the Postgres store pushes the same predicates into
// SQL.
func matchOrder(o model.Order, f OrderFilter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.ExcludeStatus != "" && o.Status == f.ExcludeStatus {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if f.TableNumber != nil {
		if o.TableNumber == nil || *o.TableNumber != *f.TableNumber {
			return false
		}
	}
	if f.Since != nil && o.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !o.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}

func matchTicket(t model.Ticket, f TicketFilter) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

// sequenceKey namespaces a counter by kind and calendar day.
func sequenceKey(kind string, asOf time.Time) string {
	return kind + ":" + asOf.Format("2006-01-02")
}
