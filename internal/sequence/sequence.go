// Package sequence issues the human-readable, day-scoped identifiers
// printed on orders and kitchen tickets.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Identifier kinds; the kind doubles as the printed prefix.
const (
	KindOrder  = "ORD"
	KindTicket = "KOT"
)

// CounterStore reserves per-day counter values atomically. Satisfied
// by store.Store.
type CounterStore interface {
	NextSequence(ctx context.Context, kind string, asOf time.Time) (int, error)
}

// Generator produces identifiers of the form <KIND><YY><MM><DD><seq>,
// where seq is a zero-padded 4-digit counter starting at 1 each day.
// The counter reservation is a single atomic store operation, so
// concurrent callers never receive the same identifier. If the store
// is unavailable no identifier is issued and the caller must abort its
// write.
type Generator struct {
	store CounterStore
}

// New creates a Generator over the given counter store.
func New(store CounterStore) *Generator {
	return &Generator{store: store}
}

// Next reserves and formats the next identifier of the given kind for
// the calendar day of asOf.
func (g *Generator) Next(ctx context.Context, kind string, asOf time.Time) (string, error) {
	n, err := g.store.NextSequence(ctx, kind, asOf)
	if err != nil {
		return "", fmt.Errorf("reserve %s sequence: %w", kind, err)
	}
	return fmt.Sprintf("%s%s%04d", kind, asOf.Format("060102"), n), nil
}
