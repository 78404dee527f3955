package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/shash06sp/Project-LogiSwift/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu      sync.Mutex
    orders  map[string]model.OrderOut       // id -> order
    byTen   map[string][]string             // tenant -> order ids
    plans   map[string]model.Plan           // id -> plan
    plansBy map[string][]string             // tenant -> plan ids
    planMx  map[string][]map[string]any     // planId -> metric snapshots
    subs    map[string][]model.Subscription // tenant -> subscriptions
    // Webhooks queue state
    deliveries         map[string]*memDelivery // id -> delivery state
    deliveriesByTenant map[string][]string     // tenant -> delivery ids
}

func NewMemory() *Memory {
    return &Memory{
        orders:             map[string]model.OrderOut{},
        byTen:              map[string][]string{},
        plans:              map[string]model.Plan{},
        plansBy:            map[string][]string{},
        planMx:             map[string][]map[string]any{},
        subs:               map[string][]model.Subscription{},
        deliveries:         map[string]*memDelivery{},
        deliveriesByTenant: map[string][]string{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreateOrders(ctx context.Context, tenantID string, orders []model.OrderIn) (string, int, int, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    created, skipped := 0, 0
    for _, o := range orders {
        if o.Location == nil {
            skipped++
            continue
        }
        demand := o.Demand
        if demand <= 0 { demand = 1 }
        id := uuid.New().String()
        m.orders[id] = model.OrderOut{ID: id, TenantID: tenantID, ExternalRef: o.ExternalRef, Location: *o.Location, Demand: demand, Status: "pending"}
        m.byTen[tenantID] = append(m.byTen[tenantID], id)
        created++
    }
    return "imp_mem", created, skipped, nil
}

func (m *Memory) ListOrders(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.OrderOut, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.byTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.OrderOut{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        o := m.orders[ids[i]]
        if status == "" || o.Status == status { out = append(out, o) }
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) MarkOrdersPlanned(ctx context.Context, tenantID string, orderIDs []string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    for _, id := range orderIDs {
        if o, ok := m.orders[id]; ok && o.TenantID == tenantID {
            o.Status = "planned"
            m.orders[id] = o
        }
    }
    return nil
}

func (m *Memory) SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if plan.ID == "" { plan.ID = uuid.New().String() }
    if plan.CreatedAt == "" { plan.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
    m.plans[plan.ID] = plan
    m.plansBy[plan.TenantID] = append(m.plansBy[plan.TenantID], plan.ID)
    return plan, nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    p, ok := m.plans[planID]
    if !ok || p.TenantID != tenantID { return model.Plan{}, ErrNotFound }
    return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.plansBy[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 50 }
    out := []model.Plan{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        out = append(out, m.plans[ids[i]])
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) SavePlanMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if p, ok := m.plans[planID]; !ok || p.TenantID != tenantID { return ErrNotFound }
    m.planMx[planID] = append(m.planMx[planID], metrics)
    return nil
}

func (m *Memory) ListPlanMetrics(ctx context.Context, tenantID, planID string) ([]map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if p, ok := m.plans[planID]; !ok || p.TenantID != tenantID { return nil, ErrNotFound }
    return append([]map[string]any(nil), m.planMx[planID]...), nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.Subscription{}
    for _, s := range m.subs[tenantID] {
        for _, e := range s.Events {
            if e == eventType || e == "*" {
                out = append(out, s)
                break
            }
        }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    all := m.subs[tenantID]
    start := 0
    if cursor != "" {
        for i, s := range all {
            if s.ID == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 50 }
    out := []model.Subscription{}
    var next string
    for i := start; i < len(all) && len(out) < limit; i++ {
        out = append(out, all[i])
        next = all[i].ID
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    all := m.subs[tenantID]
    for i, s := range all {
        if s.ID == id {
            m.subs[tenantID] = append(all[:i], all[i+1:]...)
            return nil
        }
    }
    return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{
        ID: id, TenantID: tenantID, SubscriptionID: subscriptionID,
        EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending",
    }, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if limit <= 0 { limit = 50 }
    now := time.Now()
    out := []WebhookDelivery{}
    for _, d := range m.deliveries {
        if d.Status == "pending" && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    d.LastError = lastError
    if success {
        now := time.Now()
        d.Status = "delivered"
        d.DeliveredAt = &now
    } else if nextAttemptAt != nil {
        d.NextAttemptAt = *nextAttemptAt
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    d.Status = "failed"
    d.LastError = lastError
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.deliveriesByTenant[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 50 }
    out := []map[string]any{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        d := m.deliveries[ids[i]]
        if status != "" && d.Status != status { continue }
        out = append(out, map[string]any{
            "id": d.ID, "eventType": d.EventType, "url": d.URL,
            "status": d.Status, "attempts": d.Attempts,
            "lastError": d.LastError, "responseCode": d.ResponseCode, "latencyMs": d.LatencyMs,
        })
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok || d.TenantID != tenantID { return ErrNotFound }
    d.Status = "pending"
    d.NextAttemptAt = time.Now()
    return nil
}
