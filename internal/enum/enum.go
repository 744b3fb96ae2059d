package enum

// ── Order lifecycle (strict chain, cancellable before completion) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// orderNext maps each order status to its successor in the chain.
var orderNext = map[string]string{
	OrderStatusPending:   OrderStatusConfirmed,
	OrderStatusConfirmed: OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusReady,
	OrderStatusReady:     OrderStatusCompleted,
}

// ValidOrderTransition reports whether an order may move from one
// status to another. Cancellation is allowed from any non-terminal
// status; otherwise only the next step in the chain is accepted.
func ValidOrderTransition(from, to string) bool {
	if OrderStatusTerminal(from) {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return orderNext[from] == to
}

// OrderStatusTerminal reports whether the status admits no further
// transitions.
func OrderStatusTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// ── Order / ticket item preparation status ──

const (
	ItemStatusPending   = "pending"
	ItemStatusPreparing = "preparing"
	ItemStatusReady     = "ready"
	ItemStatusServed    = "served"
	ItemStatusCancelled = "cancelled"
)

// ValidItemStatus reports whether s is a known item preparation status.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady,
		ItemStatusServed, ItemStatusCancelled:
		return true
	}
	return false
}

// ── Ticket (KOT) status ──

const (
	TicketStatusPending   = "pending"
	TicketStatusPreparing = "preparing"
	TicketStatusCompleted = "completed"
	TicketStatusCancelled = "cancelled"
)

const (
	TicketPriorityNormal = "normal"
	TicketPriorityUrgent = "urgent"
)

// ValidTicketPriority reports whether p is a known ticket priority.
func ValidTicketPriority(p string) bool {
	return p == TicketPriorityNormal || p == TicketPriorityUrgent
}

// ── Table status ──

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
	TableStatusHold      = "hold"
)

// ValidTableStatus reports whether s is a known table status.
func ValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied,
		TableStatusReserved, TableStatusHold:
		return true
	}
	return false
}

// ── Order type ──

const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeParcel   = "parcel"
	OrderTypeDelivery = "delivery"
)

// ValidOrderType reports whether t is a known order type.
func ValidOrderType(t string) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeParcel, OrderTypeDelivery:
		return true
	}
	return false
}

// ── Payment ──

const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// ── User roles ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleManager = "MANAGER"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
)
