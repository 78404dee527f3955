package store

import (
	"context"
	"testing"
	"time"

	"github.com/shash06sp/Project-LogiSwift/internal/model"
)

func TestMemoryOrders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, created, skipped, err := m.CreateOrders(ctx, "t1", []model.OrderIn{
		{ExternalRef: "O1", Location: &model.GeoPoint{Lat: 1, Lng: 2}},
		{ExternalRef: "O2"}, // no location
		{Location: &model.GeoPoint{Lat: 3, Lng: 4}, Demand: 2},
	})
	if err != nil {
		t.Fatalf("CreateOrders: %v", err)
	}
	if created != 2 || skipped != 1 {
		t.Fatalf("created=%d skipped=%d", created, skipped)
	}
	items, next, err := m.ListOrders(ctx, "t1", "pending", "", 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(items) != 2 || next != "" {
		t.Fatalf("items=%d next=%q", len(items), next)
	}
	if items[1].Demand != 2 {
		t.Fatalf("demand not kept: %+v", items[1])
	}
	if err := m.MarkOrdersPlanned(ctx, "t1", []string{items[0].ID}); err != nil {
		t.Fatalf("MarkOrdersPlanned: %v", err)
	}
	items, _, _ = m.ListOrders(ctx, "t1", "planned", "", 10)
	if len(items) != 1 {
		t.Fatalf("planned filter: got %d", len(items))
	}
}

func TestMemoryPlans(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p, err := m.SavePlan(ctx, model.Plan{TenantID: "t1", Capacity: 5, TotalCost: 42, RouteCount: 2,
		Routes: []model.RouteOut{{Seq: []int{0, 1, 0}, Load: 1, Cost: 42}}})
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if p.ID == "" || p.CreatedAt == "" {
		t.Fatalf("id/createdAt not assigned: %+v", p)
	}
	got, err := m.GetPlan(ctx, "t1", p.ID)
	if err != nil || got.TotalCost != 42 {
		t.Fatalf("GetPlan: %v %+v", err, got)
	}
	if _, err := m.GetPlan(ctx, "other", p.ID); err != ErrNotFound {
		t.Fatalf("tenant isolation: got %v", err)
	}
	if err := m.SavePlanMetrics(ctx, "t1", p.ID, map[string]any{"merges": 3}); err != nil {
		t.Fatalf("SavePlanMetrics: %v", err)
	}
	mx, err := m.ListPlanMetrics(ctx, "t1", p.ID)
	if err != nil || len(mx) != 1 {
		t.Fatalf("ListPlanMetrics: %v %v", err, mx)
	}
	plans, _, err := m.ListPlans(ctx, "t1", "", 10)
	if err != nil || len(plans) != 1 {
		t.Fatalf("ListPlans: %v %v", err, plans)
	}
}

func TestMemorySubscriptionsEventMatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://a", Events: []string{"plan.completed"}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://b", Events: []string{"*"}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://c", Events: []string{"orders.imported"}})
	subs, err := m.GetSubscriptionsForEvent(ctx, "t1", "plan.completed")
	if err != nil {
		t.Fatalf("GetSubscriptionsForEvent: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 matching subs, got %d", len(subs))
	}
}

func TestMemoryWebhookLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.EnqueueWebhook(ctx, "t1", "sub1", "plan.completed", "http://x", "s", []byte(`{}`))
	if err != nil {
		t.Fatalf("EnqueueWebhook: %v", err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("FetchDue: %v %v", err, due)
	}
	next := time.Now().Add(time.Minute)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("delivery should be deferred, got %v", due)
	}
	if err := m.RetryWebhookDelivery(ctx, "t1", id); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 {
		t.Fatal("retry should make delivery due again")
	}
	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 5); err != nil {
		t.Fatalf("Mark success: %v", err)
	}
	items, _, err := m.ListWebhookDeliveries(ctx, "t1", "delivered", "", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("ListWebhookDeliveries: %v %v", err, items)
	}
}
