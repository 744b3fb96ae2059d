package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Table is a physical seating unit on the restaurant floor.
//
// CurrentOrderID is set exactly when Status is occupied; HoldUntil is
// set exactly when Status is hold. Both are cleared on release.
type Table struct {
	Number        int        `json:"number"`
	Capacity      int        `json:"capacity"`
	Status        string     `json:"status"`
	Section       string     `json:"section,omitempty"`
	Waiter        string     `json:"waiter,omitempty"`
	CurrentOrder  *uuid.UUID `json:"current_order,omitempty"`
	HoldUntil     *time.Time `json:"hold_until,omitempty"`
	OccupiedSince *time.Time `json:"occupied_since,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OrderItem is a single line on an order. UnitPrice is captured from
// the menu at the time the line is added and never re-resolved, so
// later catalog price changes do not alter existing orders. Ticketed
// marks lines that have already been placed on a kitchen ticket.
type OrderItem struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Notes      string          `json:"notes,omitempty"`
	Status     string          `json:"status"`
	Ticketed   bool            `json:"ticketed"`
}

// Order is one customer transaction. Number is the day-scoped
// human-readable identifier (ORD...); ID is the storage key.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	Type          string          `json:"type"`
	TableNumber   *int            `json:"table_number,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Items         []OrderItem     `json:"items"`
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"payment_status"`
	TicketIDs     []uuid.UUID     `json:"ticket_ids"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TicketItem is one unit of kitchen work on a ticket. It mirrors the
// order line it was derived from; the link back is the menu item
// identity within the owning order, not a shared key.
type TicketItem struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"`
}

// Ticket is a kitchen order ticket (KOT) derived from an order's
// unsent items. It becomes completed exactly when every item on it is
// ready.
type Ticket struct {
	ID           uuid.UUID    `json:"id"`
	Number       string       `json:"number"`
	OrderID      uuid.UUID    `json:"order_id"`
	TableNumber  *int         `json:"table_number,omitempty"`
	Items        []TicketItem `json:"items"`
	Status       string       `json:"status"`
	Priority     string       `json:"priority"`
	PreparedBy   string       `json:"prepared_by,omitempty"`
	PreparedTime *time.Time   `json:"prepared_time,omitempty"`
	ServedTime   *time.Time   `json:"served_time,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Version      int64        `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// MenuItem is a catalog entry. The engine only reads price and
// availability; catalog management lives elsewhere.
type MenuItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Available   bool            `json:"available"`
	PrepMinutes int             `json:"prep_minutes,omitempty"`
	Version     int64           `json:"version"`
}

// Clone returns a deep copy of the order (items and ticket refs are
// copied, not shared).
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.TicketIDs = append([]uuid.UUID(nil), o.TicketIDs...)
	return c
}

// Clone returns a deep copy of the ticket.
func (t Ticket) Clone() Ticket {
	c := t
	c.Items = append([]TicketItem(nil), t.Items...)
	return c
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	c := t
	if t.CurrentOrder != nil {
		v := *t.CurrentOrder
		c.CurrentOrder = &v
	}
	if t.HoldUntil != nil {
		v := *t.HoldUntil
		c.HoldUntil = &v
	}
	if t.OccupiedSince != nil {
		v := *t.OccupiedSince
		c.OccupiedSince = &v
	}
	return c
}
