// Package pricing computes line and order totals with exact decimal
// arithmetic.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
)

// ErrItemUnavailable marks a menu item that exists but is switched off.
var ErrItemUnavailable = errors.New("menu item unavailable")

// MenuLookup resolves a menu item's current price and availability.
// Satisfied by store.Store.
type MenuLookup interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error)
}

// ItemRequest is one requested order line before pricing.
type ItemRequest struct {
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      string
}

// Totals is the derived money roll-up of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Engine prices order lines against the menu and rolls items up into
// totals. The tax rate is a percentage fixed at construction.
type Engine struct {
	taxRate decimal.Decimal
}

// New creates an Engine with the given tax percentage (e.g. 5 for 5%).
func New(taxRatePercent decimal.Decimal) *Engine {
	return &Engine{taxRate: taxRatePercent}
}

// PriceItems resolves each requested line against the menu, capturing
// the current unit price onto the new order item. It is only ever
// called for lines not yet persisted; captured prices on existing
// lines are never revisited.
func (e *Engine) PriceItems(ctx context.Context, reqs []ItemRequest, menu MenuLookup) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(reqs))
	for i, req := range reqs {
		mi, err := menu.GetMenuItem(ctx, req.MenuItemID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("item[%d] %s: %w", i, req.MenuItemID, model.ErrUnknownMenuItem)
			}
			return nil, fmt.Errorf("item[%d]: lookup menu item: %w", i, err)
		}
		if !mi.Available {
			return nil, fmt.Errorf("item[%d] %s: %w", i, mi.Name, ErrItemUnavailable)
		}
		items = append(items, model.OrderItem{
			ID:         uuid.New(),
			MenuItemID: mi.ID,
			Name:       mi.Name,
			Quantity:   req.Quantity,
			UnitPrice:  mi.Price,
			Notes:      req.Notes,
			Status:     enum.ItemStatusPending,
		})
	}
	return items, nil
}

// Sum rolls the given items up into subtotal, tax and total using the
// unit prices already captured on them. Cancelled lines contribute
// nothing. Tax is rounded to 2 decimal places at write time and
// total = subtotal + tax by construction.
func (e *Engine) Sum(items []model.OrderItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Status == enum.ItemStatusCancelled {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	tax := subtotal.Mul(e.taxRate).Div(decimal.NewFromInt(100)).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
