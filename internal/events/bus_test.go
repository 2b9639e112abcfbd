package events

import (
	"context"
	"testing"

	"storefront-client/internal/domain"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(LoggedIn, func(_ context.Context, ev Event) { order = append(order, "first:"+ev.User.ID) })
	bus.Subscribe(LoggedIn, func(_ context.Context, ev Event) { order = append(order, "second:"+ev.User.ID) })
	bus.Subscribe(LoggedOut, func(context.Context, Event) { order = append(order, "wrong") })

	bus.Publish(context.Background(), Event{Kind: LoggedIn, User: &domain.User{ID: "u1"}})

	if len(order) != 2 || order[0] != "first:u1" || order[1] != "second:u1" {
		t.Fatalf("unexpected delivery: %v", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(Unauthorized, func(context.Context, Event) { calls++ })

	bus.Publish(context.Background(), Event{Kind: Unauthorized})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), Event{Kind: Unauthorized})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := NewBus()
	got := false
	bus.Subscribe(Unauthorized, func(ctx context.Context, _ Event) {
		bus.Publish(ctx, Event{Kind: LoggedOut, Reason: "unauthorized"})
	})
	bus.Subscribe(LoggedOut, func(_ context.Context, ev Event) { got = ev.Reason == "unauthorized" })

	bus.Publish(context.Background(), Event{Kind: Unauthorized})

	if !got {
		t.Fatalf("nested publish not delivered")
	}
}
