package store

import (
    "context"
    "errors"
    "time"

    "github.com/shash06sp/Project-LogiSwift/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Orders
    CreateOrders(ctx context.Context, tenantID string, orders []model.OrderIn) (importID string, created, skipped int, err error)
    ListOrders(ctx context.Context, tenantID, status, cursor string, limit int) (items []model.OrderOut, nextCursor string, err error)
    MarkOrdersPlanned(ctx context.Context, tenantID string, orderIDs []string) error

    // Plans
    SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error)
    GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error)
    ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error)

    // Solver metrics per plan
    SavePlanMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error
    ListPlanMetrics(ctx context.Context, tenantID, planID string) ([]map[string]any, error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, tenantID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
    RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
