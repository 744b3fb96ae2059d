package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/model"
)

// Memory is a mutex-guarded in-memory Store. It is the reference
// implementation of the contract and backs all unit tests.
type Memory struct {
	mu        sync.Mutex
	tables    map[int]model.Table
	orders    map[uuid.UUID]model.Order
	tickets   map[uuid.UUID]model.Ticket
	menu      map[uuid.UUID]model.MenuItem
	sequences map[string]int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tables:    make(map[int]model.Table),
		orders:    make(map[uuid.UUID]model.Order),
		tickets:   make(map[uuid.UUID]model.Ticket),
		menu:      make(map[uuid.UUID]model.MenuItem),
		sequences: make(map[string]int),
	}
}

func (m *Memory) GetTable(ctx context.Context, number int) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[number]
	if !ok {
		return model.Table{}, fmt.Errorf("table %d: %w", number, model.ErrNotFound)
	}
	return t.Clone(), nil
}

func (m *Memory) PutTable(ctx context.Context, t model.Table) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.tables[t.Number]
	if err := checkVersion(exists, cur.Version, t.Version); err != nil {
		return model.Table{}, fmt.Errorf("table %d: %w", t.Number, err)
	}
	t.Version++
	m.tables[t.Number] = t.Clone()
	return t, nil
}

func (m *Memory) ListTables(ctx context.Context) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", id, model.ErrNotFound)
	}
	return o.Clone(), nil
}

func (m *Memory) PutOrder(ctx context.Context, o model.Order) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.orders[o.ID]
	if err := checkVersion(exists, cur.Version, o.Version); err != nil {
		return model.Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.Version++
	m.orders[o.ID] = o.Clone()
	return o, nil
}

func (m *Memory) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if matchOrder(o, f) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *Memory) GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return model.Ticket{}, fmt.Errorf("ticket %s: %w", id, model.ErrNotFound)
	}
	return t.Clone(), nil
}

func (m *Memory) PutTicket(ctx context.Context, t model.Ticket) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.tickets[t.ID]
	if err := checkVersion(exists, cur.Version, t.Version); err != nil {
		return model.Ticket{}, fmt.Errorf("ticket %s: %w", t.ID, err)
	}
	t.Version++
	m.tickets[t.ID] = t.Clone()
	return t, nil
}

func (m *Memory) ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.tickets {
		if matchTicket(t, f) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mi, ok := m.menu[id]
	if !ok {
		return model.MenuItem{}, fmt.Errorf("menu item %s: %w", id, model.ErrNotFound)
	}
	return mi, nil
}

func (m *Memory) PutMenuItem(ctx context.Context, mi model.MenuItem) (model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.menu[mi.ID]
	if err := checkVersion(exists, cur.Version, mi.Version); err != nil {
		return model.MenuItem{}, fmt.Errorf("menu item %s: %w", mi.ID, err)
	}
	mi.Version++
	m.menu[mi.ID] = mi
	return mi, nil
}

func (m *Memory) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MenuItem, 0, len(m.menu))
	for _, mi := range m.menu {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) NextSequence(ctx context.Context, kind string, asOf time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sequenceKey(kind, asOf)
	m.sequences[key]++
	return m.sequences[key], nil
}

// checkVersion enforces the CAS contract: a new record must be written
// at version 0, an existing one at its stored version.
func checkVersion(exists bool, stored, given int64) error {
	if !exists {
		if given != 0 {
			return model.ErrConflict
		}
		return nil
	}
	if stored != given {
		return model.ErrConflict
	}
	return nil
}
