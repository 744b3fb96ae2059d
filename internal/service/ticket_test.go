package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/pricing"
)

// newTicketFixture creates an order with two distinct menu lines and
// returns the derived ticket alongside the order.
func newTicketFixture(t *testing.T, env *testEnv) (model.Order, model.Ticket) {
	t.Helper()
	dish := env.addMenuItem(t, "Butter Chicken", "320", true)
	side := env.addMenuItem(t, "Garlic Naan", "60", true)

	res, err := env.orders.Create(context.Background(), CreateOrderRequest{
		Type: enum.OrderTypeParcel,
		Items: []pricing.ItemRequest{
			{MenuItemID: dish, Quantity: 1},
			{MenuItemID: side, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if res.Ticket == nil {
		t.Fatal("no ticket derived")
	}
	return res.Order, *res.Ticket
}

func TestTicketCompletesWhenAllItemsReady(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	got, err := env.tickets.SetItemStatus(ctx, ticket.ID, ticket.Items[0].ID, enum.ItemStatusReady, "arun")
	if err != nil {
		t.Fatalf("first item: %v", err)
	}
	if got.Status == enum.TicketStatusCompleted {
		t.Fatal("completed with one item still pending")
	}
	if got.PreparedTime != nil {
		t.Error("PreparedTime set before completion")
	}

	got, err = env.tickets.SetItemStatus(ctx, ticket.ID, ticket.Items[1].ID, enum.ItemStatusReady, "")
	if err != nil {
		t.Fatalf("second item: %v", err)
	}
	if got.Status != enum.TicketStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.PreparedTime == nil || !got.PreparedTime.Equal(env.clock.Now()) {
		t.Errorf("PreparedTime = %v, want %s", got.PreparedTime, env.clock.Now())
	}
	if got.PreparedBy != "arun" {
		t.Errorf("PreparedBy = %q, want arun", got.PreparedBy)
	}
}

func TestTicketServedTimeSetWhenAllItemsServed(t *testing.T) {
	env := newTestEnv()
	order, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	for _, it := range ticket.Items {
		if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, it.ID, enum.ItemStatusReady, ""); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}
	got, err := env.tickets.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ServedTime != nil {
		t.Error("ServedTime set before items served")
	}

	env.clock.Advance(5 * time.Minute)
	for _, it := range ticket.Items {
		if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, it.ID, enum.ItemStatusServed, ""); err != nil {
			t.Fatalf("served: %v", err)
		}
	}
	got, err = env.tickets.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ServedTime == nil || !got.ServedTime.Equal(env.clock.Now()) {
		t.Errorf("ServedTime = %v, want %s", got.ServedTime, env.clock.Now())
	}
	if got.Status != enum.TicketStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	// Serving propagates to the order lines like any other status.
	o, _ := env.store.GetOrder(ctx, order.ID)
	for _, it := range o.Items {
		if it.Status != enum.ItemStatusServed {
			t.Errorf("order item %s status = %s, want served", it.Name, it.Status)
		}
	}
}

func TestTicketCompletesWhenItemsServedOutOfOrder(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	// One item jumps straight to served; the ticket still completes
	// once the rest are ready.
	if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, ticket.Items[0].ID, enum.ItemStatusServed, ""); err != nil {
		t.Fatalf("served: %v", err)
	}
	got, err := env.tickets.SetItemStatus(ctx, ticket.ID, ticket.Items[1].ID, enum.ItemStatusReady, "")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if got.Status != enum.TicketStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestTicketBumpsToPreparingOnFirstItem(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)

	got, err := env.tickets.SetItemStatus(context.Background(), ticket.ID, ticket.Items[0].ID, enum.ItemStatusPreparing, "")
	if err != nil {
		t.Fatalf("set item status: %v", err)
	}
	if got.Status != enum.TicketStatusPreparing {
		t.Errorf("status = %s, want preparing", got.Status)
	}
}

func TestItemStatusPropagatesToOrder(t *testing.T) {
	env := newTestEnv()
	order, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	target := ticket.Items[0]
	if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, target.ID, enum.ItemStatusReady, ""); err != nil {
		t.Fatalf("set item status: %v", err)
	}

	o, err := env.store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	for _, it := range o.Items {
		want := enum.ItemStatusPending
		if it.MenuItemID == target.MenuItemID {
			want = enum.ItemStatusReady
		}
		if it.Status != want {
			t.Errorf("order item %s status = %s, want %s", it.Name, it.Status, want)
		}
	}
}

func TestPropagationSkipsCancelledLines(t *testing.T) {
	env := newTestEnv()
	order, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	// Cancel the order line for the first ticket item directly.
	o, _ := env.store.GetOrder(ctx, order.ID)
	target := ticket.Items[0]
	for i := range o.Items {
		if o.Items[i].MenuItemID == target.MenuItemID {
			o.Items[i].Status = enum.ItemStatusCancelled
		}
	}
	if _, err := env.store.PutOrder(ctx, o); err != nil {
		t.Fatalf("put order: %v", err)
	}

	if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, target.ID, enum.ItemStatusReady, ""); err != nil {
		t.Fatalf("set item status: %v", err)
	}

	o, _ = env.store.GetOrder(ctx, order.ID)
	for _, it := range o.Items {
		if it.MenuItemID == target.MenuItemID && it.Status != enum.ItemStatusCancelled {
			t.Errorf("cancelled line was overwritten to %s", it.Status)
		}
	}
}

func TestUnknownTicketItemIgnored(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)

	before := len(env.hub.byType(EventTicketUpdated))
	got, err := env.tickets.SetItemStatus(context.Background(), ticket.ID, uuid.New(), enum.ItemStatusReady, "")
	if err != nil {
		t.Fatalf("set item status: %v", err)
	}
	if got.Status != ticket.Status {
		t.Errorf("status changed to %s", got.Status)
	}
	if after := len(env.hub.byType(EventTicketUpdated)); after != before {
		t.Errorf("event published for ignored update")
	}
}

func TestInvalidItemStatusRejected(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)

	_, err := env.tickets.SetItemStatus(context.Background(), ticket.ID, ticket.Items[0].ID, "plated", "")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSetPriority(t *testing.T) {
	env := newTestEnv()
	_, ticket := newTicketFixture(t, env)
	ctx := context.Background()

	got, err := env.tickets.SetPriority(ctx, ticket.ID, enum.TicketPriorityUrgent)
	if err != nil {
		t.Fatalf("set priority: %v", err)
	}
	if got.Priority != enum.TicketPriorityUrgent {
		t.Errorf("priority = %s, want urgent", got.Priority)
	}

	if _, err := env.tickets.SetPriority(ctx, ticket.ID, "asap"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}

	events := env.hub.byType(EventTicketPriorityUpdated)
	if len(events) != 2 {
		t.Errorf("got %d priority events, want 2 (events + kitchen)", len(events))
	}
}

func TestListPendingOrdering(t *testing.T) {
	env := newTestEnv()
	dish := env.addMenuItem(t, "Dal Makhani", "220", true)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := env.orders.Create(ctx, CreateOrderRequest{
			Type:  enum.OrderTypeParcel,
			Items: []pricing.ItemRequest{{MenuItemID: dish, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, res.Ticket.ID)
		env.clock.Advance(time.Minute)
	}

	// The newest ticket jumps the queue once marked urgent.
	if _, err := env.tickets.SetPriority(ctx, ids[2], enum.TicketPriorityUrgent); err != nil {
		t.Fatalf("set priority: %v", err)
	}

	queue, err := env.tickets.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("got %d tickets, want 3", len(queue))
	}
	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	for i, id := range want {
		if queue[i].ID != id {
			t.Errorf("queue[%d] = %s, want %s", i, queue[i].ID, id)
		}
	}
}

func TestListPendingExcludesCompleted(t *testing.T) {
	env := newTestEnv()
	dish := env.addMenuItem(t, "Masala Chai", "40", true)
	ctx := context.Background()

	res, err := env.orders.Create(ctx, CreateOrderRequest{
		Type:  enum.OrderTypeParcel,
		Items: []pricing.ItemRequest{{MenuItemID: dish, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ticket := res.Ticket
	if _, err := env.tickets.SetItemStatus(ctx, ticket.ID, ticket.Items[0].ID, enum.ItemStatusReady, ""); err != nil {
		t.Fatalf("set item status: %v", err)
	}

	queue, err := env.tickets.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("completed ticket still queued: %+v", queue)
	}
}
