package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "github.com/shash06sp/Project-LogiSwift/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies .sql files from dir in lexical order. Dev helper;
// production deployments run migrations out of band.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
    }
    sort.Strings(names)
    for _, n := range names {
        body, err := os.ReadFile(filepath.Join(dir, n))
        if err != nil { return err }
        if _, err := p.db.Exec(string(body)); err != nil {
            return fmt.Errorf("migrate %s: %w", n, err)
        }
    }
    return nil
}

// CreateOrders inserts orders. Dedup by (tenant_id, external_ref).
func (p *Postgres) CreateOrders(ctx context.Context, tenantID string, orders []model.OrderIn) (string, int, int, error) {
    importID := fmt.Sprintf("imp_%d", time.Now().UnixNano())
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return "", 0, 0, err }
    defer func(){ _ = tx.Rollback() }()

    created := 0
    skipped := 0
    for _, o := range orders {
        if o.Location == nil { skipped++; continue }
        if o.ExternalRef != "" {
            var existsID string
            err = tx.QueryRowContext(ctx, `SELECT id::text FROM orders WHERE tenant_id=$1 AND external_ref=$2`, tenantID, o.ExternalRef).Scan(&existsID)
            if err == nil {
                skipped++
                continue
            }
            if err != nil && !errors.Is(err, sql.ErrNoRows) {
                return "", 0, 0, err
            }
        }
        demand := o.Demand
        if demand <= 0 { demand = 1 }
        _, err = tx.ExecContext(ctx, `INSERT INTO orders (id, tenant_id, external_ref, lat, lng, demand, status, attrs) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
            uuid.New(), tenantID, nullIfEmpty(o.ExternalRef), o.Location.Lat, o.Location.Lng, demand, "pending", toJSON(o.Attributes))
        if err != nil { return "", 0, 0, err }
        created++
    }
    if err := tx.Commit(); err != nil { return "", 0, 0, err }
    return importID, created, skipped, nil
}

func (p *Postgres) ListOrders(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.OrderOut, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, external_ref, lat, lng, demand, status FROM orders WHERE tenant_id=$1`
    args := []any{tenantID}
    if status != "" {
        args = append(args, status)
        q += fmt.Sprintf(" AND status=$%d", len(args))
    }
    if cursor != "" {
        args = append(args, cursor)
        q += fmt.Sprintf(" AND id::text > $%d", len(args))
    }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.OrderOut{}
    var last string
    for rows.Next() {
        var o model.OrderOut
        var ext sql.NullString
        if err := rows.Scan(&o.ID, &ext, &o.Location.Lat, &o.Location.Lng, &o.Demand, &o.Status); err != nil { return nil, "", err }
        o.ExternalRef = ext.String
        o.TenantID = tenantID
        out = append(out, o)
        last = o.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) MarkOrdersPlanned(ctx context.Context, tenantID string, orderIDs []string) error {
    for _, id := range orderIDs {
        if _, err := p.db.ExecContext(ctx, `UPDATE orders SET status='planned' WHERE tenant_id=$1 AND id::text=$2`, tenantID, id); err != nil {
            return err
        }
    }
    return nil
}

func (p *Postgres) SavePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
    if plan.ID == "" { plan.ID = uuid.New().String() }
    if plan.CreatedAt == "" { plan.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO plans (id, tenant_id, plan_date, capacity, total_cost, route_count, routes, stats, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
        plan.ID, plan.TenantID, nullIfEmpty(plan.PlanDate), plan.Capacity, plan.TotalCost, plan.RouteCount,
        toJSON(plan.Routes), toJSON(plan.Stats), plan.CreatedAt)
    if err != nil { return model.Plan{}, err }
    return plan, nil
}

func (p *Postgres) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
    row := p.db.QueryRowContext(ctx,
        `SELECT id::text, plan_date, capacity, total_cost, route_count, routes, stats, created_at::text
         FROM plans WHERE tenant_id=$1 AND id::text=$2`, tenantID, planID)
    pl, err := scanPlan(row, tenantID)
    if errors.Is(err, sql.ErrNoRows) { return model.Plan{}, ErrNotFound }
    return pl, err
}

func (p *Postgres) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
    if limit <= 0 || limit > 200 { limit = 50 }
    q := `SELECT id::text, plan_date, capacity, total_cost, route_count, routes, stats, created_at::text FROM plans WHERE tenant_id=$1`
    args := []any{tenantID}
    if cursor != "" {
        args = append(args, cursor)
        q += fmt.Sprintf(" AND id::text > $%d", len(args))
    }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Plan{}
    var last string
    for rows.Next() {
        pl, err := scanPlan(rows, tenantID)
        if err != nil { return nil, "", err }
        out = append(out, pl)
        last = pl.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPlan(r rowScanner, tenantID string) (model.Plan, error) {
    var pl model.Plan
    var planDate sql.NullString
    var routesJSON, statsJSON []byte
    if err := r.Scan(&pl.ID, &planDate, &pl.Capacity, &pl.TotalCost, &pl.RouteCount, &routesJSON, &statsJSON, &pl.CreatedAt); err != nil {
        return model.Plan{}, err
    }
    pl.TenantID = tenantID
    pl.PlanDate = planDate.String
    if len(routesJSON) > 0 {
        if err := json.Unmarshal(routesJSON, &pl.Routes); err != nil { return model.Plan{}, err }
    }
    if len(statsJSON) > 0 {
        if err := json.Unmarshal(statsJSON, &pl.Stats); err != nil { return model.Plan{}, err }
    }
    return pl, nil
}

func (p *Postgres) SavePlanMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error {
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO plan_metrics (id, tenant_id, plan_id, metrics, created_at) VALUES ($1,$2,$3,$4,now())`,
        uuid.New(), tenantID, planID, toJSON(metrics))
    return err
}

func (p *Postgres) ListPlanMetrics(ctx context.Context, tenantID, planID string) ([]map[string]any, error) {
    rows, err := p.db.QueryContext(ctx,
        `SELECT metrics FROM plan_metrics WHERE tenant_id=$1 AND plan_id=$2 ORDER BY created_at`, tenantID, planID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []map[string]any{}
    for rows.Next() {
        var body []byte
        if err := rows.Scan(&body); err != nil { return nil, err }
        m := map[string]any{}
        if err := json.Unmarshal(body, &m); err != nil { return nil, err }
        out = append(out, m)
    }
    return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
        s.ID, s.TenantID, s.URL, pqStringArray(s.Events), s.Secret)
    if err != nil { return model.Subscription{}, err }
    return s, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx,
        `SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1 AND (events @> ARRAY[$2]::text[] OR events @> ARRAY['*']::text[])`,
        tenantID, eventType)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var evs []byte
        if err := rows.Scan(&s.ID, &s.URL, &evs, &s.Secret); err != nil { return nil, err }
        s.TenantID = tenantID
        s.Events = parsePGTextArray(string(evs))
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 200 { limit = 50 }
    q := `SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1`
    args := []any{tenantID}
    if cursor != "" {
        args = append(args, cursor)
        q += fmt.Sprintf(" AND id::text > $%d", len(args))
    }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Subscription{}
    var last string
    for rows.Next() {
        var s model.Subscription
        var evs []byte
        if err := rows.Scan(&s.ID, &s.URL, &evs, &s.Secret); err != nil { return nil, "", err }
        s.TenantID = tenantID
        s.Events = parsePGTextArray(string(evs))
        out = append(out, s)
        last = s.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id::text=$2`, tenantID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New().String()
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now())`,
        id, tenantID, nullIfEmpty(subscriptionID), eventType, url, secret, payload)
    return id, err
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    rows, err := p.db.QueryContext(ctx,
        `SELECT id::text, tenant_id, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
         FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now() ORDER BY next_attempt_at LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if success {
        _, err := p.db.ExecContext(ctx,
            `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, delivered_at=now() WHERE id::text=$1`,
            id, lastError, responseCode, latencyMs)
        return err
    }
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, next_attempt_at=$5 WHERE id::text=$1`,
        id, lastError, responseCode, latencyMs, nextAttemptAt)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id::text=$1`,
        id, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 200 { limit = 50 }
    q := `SELECT id::text, event_type, url, status, attempts, COALESCE(last_error,''), COALESCE(response_code,0), COALESCE(latency_ms,0) FROM webhook_deliveries WHERE tenant_id=$1`
    args := []any{tenantID}
    if status != "" {
        args = append(args, status)
        q += fmt.Sprintf(" AND status=$%d", len(args))
    }
    if cursor != "" {
        args = append(args, cursor)
        q += fmt.Sprintf(" AND id::text > $%d", len(args))
    }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    var last string
    for rows.Next() {
        var id, eventType, url, st, lastErr string
        var attempts, code, latency int
        if err := rows.Scan(&id, &eventType, &url, &st, &attempts, &lastErr, &code, &latency); err != nil { return nil, "", err }
        out = append(out, map[string]any{
            "id": id, "eventType": eventType, "url": url, "status": st,
            "attempts": attempts, "lastError": lastErr, "responseCode": code, "latencyMs": latency,
        })
        last = id
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    res, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id::text=$2`, tenantID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func nullIfEmpty(s string) any {
    if s == "" { return nil }
    return s
}

func toJSON(v any) []byte {
    if v == nil { return nil }
    b, err := json.Marshal(v)
    if err != nil { return nil }
    return b
}

// pqStringArray renders a []string as a Postgres text[] literal.
func pqStringArray(ss []string) any {
    if len(ss) == 0 { return nil }
    esc := make([]string, len(ss))
    for i, s := range ss {
        esc[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
    }
    return "{" + strings.Join(esc, ",") + "}"
}

// parsePGTextArray decodes a simple {a,b} text[] literal.
func parsePGTextArray(s string) []string {
    s = strings.TrimSpace(s)
    s = strings.TrimPrefix(s, "{")
    s = strings.TrimSuffix(s, "}")
    if s == "" { return nil }
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        out = append(out, strings.Trim(p, `"`))
    }
    return out
}
