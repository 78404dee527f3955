package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "math/rand"
    "net/http"
    "runtime"
    "strings"
    "time"

    "github.com/shash06sp/Project-LogiSwift/internal/geo"
    "github.com/shash06sp/Project-LogiSwift/internal/metrics"
    "github.com/shash06sp/Project-LogiSwift/internal/model"
    "github.com/shash06sp/Project-LogiSwift/internal/solver"
)

// OrdersHandler handles POST/GET /v1/orders
func (s *Server) OrdersHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        var req struct {
            TenantID string          `json:"tenantId"`
            Orders   []model.OrderIn `json:"orders"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.TenantID == "" { _, req.TenantID = s.withTenant(r) }
        imp, created, skipped, err := s.Store.CreateOrders(r.Context(), req.TenantID, req.Orders)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create orders failed", err.Error(), r.URL.Path)
            return
        }
        s.Pub.Emit(r.Context(), req.TenantID, "orders.imported", map[string]any{"importId": imp, "created": created, "skipped": skipped})
        writeJSON(w, http.StatusAccepted, map[string]any{"importId": imp, "created": created, "skipped": skipped})
    case http.MethodGet:
        _, tenant := s.withTenant(r)
        status := r.URL.Query().Get("status")
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListOrders(r.Context(), tenant, status, cursor, limit)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List orders failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// GenerateOrdersHandler handles POST /v1/orders/generate. It samples
// synthetic delivery points around the depot and imports them as
// pending orders, mainly for demos and load checks.
func (s *Server) GenerateOrdersHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    pr := s.getPrincipal(r)
    if !(pr.IsAdmin() || pr.Role == "dispatcher") { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req struct {
        TenantID string          `json:"tenantId"`
        Count    int             `json:"count"`
        RadiusKm float64         `json:"radiusKm"`
        Seed     int64           `json:"seed"`
        Depot    *model.GeoPoint `json:"depot"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if req.TenantID == "" { _, req.TenantID = s.withTenant(r) }
    if req.Count <= 0 { req.Count = 20 }
    if req.Count > 1000 { writeProblem(w, 400, "Too many orders", "count must be <= 1000", r.URL.Path); return }
    if req.RadiusKm <= 0 { req.RadiusKm = 6 }
    depot := geo.DefaultDepot
    if req.Depot != nil { depot = geo.Point{Lat: req.Depot.Lat, Lng: req.Depot.Lng} }
    seed := req.Seed
    if seed == 0 { seed = time.Now().UnixNano() }
    rng := rand.New(rand.NewSource(seed))
    pts := geo.RandomCustomers(rng, depot, req.RadiusKm, req.Count)
    orders := make([]model.OrderIn, len(pts))
    for i, p := range pts {
        orders[i] = model.OrderIn{
            ExternalRef: fmt.Sprintf("gen-%d-%d", seed, i),
            Location:    &model.GeoPoint{Lat: p.Lat, Lng: p.Lng},
            Demand:      1,
        }
    }
    imp, created, skipped, err := s.Store.CreateOrders(r.Context(), req.TenantID, orders)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Create orders failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusCreated, map[string]any{"importId": imp, "created": created, "skipped": skipped, "seed": seed})
}

// SolveHandler handles POST /v1/solve
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    pr := s.getPrincipal(r)
    if !(pr.IsAdmin() || pr.Role == "dispatcher") { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req model.SolveRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateSolveRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    if req.TenantID == "" { _, req.TenantID = s.withTenant(r) }
    if req.Capacity == 0 { req.Capacity = s.Cfg.DefaultCapacity }
    if req.SpeedKph == 0 { req.SpeedKph = s.Cfg.DefaultSpeedKph }

    source := req.MatrixSource
    if source == "" {
        if len(req.Matrix) > 0 { source = "inline" } else { source = "haversine" }
    }

    started := time.Now()
    var cost [][]float64
    var orders []model.OrderOut
    sanitized := 0
    switch source {
    case "inline":
        cost = req.Matrix
    case "haversine", "osrm":
        var err error
        orders, err = s.pendingOrders(r.Context(), req.TenantID)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List orders failed", err.Error(), r.URL.Path)
            return
        }
        if len(orders) == 0 {
            writeProblem(w, http.StatusBadRequest, "No pending orders", "import orders before solving, or pass an inline matrix", r.URL.Path)
            return
        }
        depot := geo.DefaultDepot
        if req.Depot != nil { depot = geo.Point{Lat: req.Depot.Lat, Lng: req.Depot.Lng} }
        pts := make([]geo.Point, 0, len(orders))
        for _, o := range orders {
            pts = append(pts, geo.Point{Lat: o.Location.Lat, Lng: o.Location.Lng})
        }
        if source == "haversine" {
            cost = geo.TimeMatrix(depot, pts, req.SpeedKph)
        } else {
            all := append([]geo.Point{depot}, pts...)
            var err error
            cost, sanitized, err = s.OSRM.Table(r.Context(), all)
            if err != nil {
                writeProblem(w, http.StatusBadGateway, "Matrix provider failed", err.Error(), r.URL.Path)
                return
            }
        }
    }

    m, err := solver.NewMatrix(cost)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid matrix", err.Error(), r.URL.Path)
        return
    }
    eng, err := solver.NewEngine(m, req.Capacity)
    if err != nil {
        if errors.Is(err, solver.ErrBadCapacity) {
            writeProblem(w, http.StatusBadRequest, "Invalid capacity", err.Error(), r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Solver init failed", err.Error(), r.URL.Path)
        return
    }
    rs := eng.Run(solver.ComputeSavings(m))

    plan := model.Plan{
        TenantID: req.TenantID,
        PlanDate: req.PlanDate,
        Capacity: req.Capacity,
    }
    planned := []string{}
    for i := 0; i < rs.Len(); i++ {
        seq := rs.Route(i)
        if req.TwoOpt {
            iters := req.TwoOptIterations
            if iters == 0 { iters = 50 }
            seq = solver.TwoOpt(m, seq, iters)
        }
        var ids []string
        for _, node := range seq {
            if node == solver.Depot { continue }
            if node-1 < len(orders) {
                ids = append(ids, orders[node-1].ID)
                planned = append(planned, orders[node-1].ID)
            }
        }
        rt := model.RouteOut{
            Seq:         seq,
            OrderIDs:    ids,
            Load:        len(seq) - 2,
            Cost:        m.SequenceCost(seq),
            Unreachable: rs.HasUnreachableArc(i),
        }
        plan.Routes = append(plan.Routes, rt)
        plan.TotalCost += rt.Cost
    }
    plan.RouteCount = len(plan.Routes)
    st := rs.Stats()
    plan.Stats = model.SolveStats{
        Candidates:   st.Candidates,
        Merges:       st.Merges,
        SameRoute:    st.SameRoute,
        OverCapacity: st.OverCapacity,
        NotEndpoint:  st.NotEndpoint,
    }

    saved, err := s.Store.SavePlan(r.Context(), plan)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
        return
    }
    if len(planned) > 0 { _ = s.Store.MarkOrdersPlanned(r.Context(), req.TenantID, planned) }

    elapsed := time.Since(started)
    metrics.PlansTotal.WithLabelValues(source).Inc()
    metrics.SolveDuration.Observe(elapsed.Seconds())
    metrics.RouteMerges.Add(float64(st.Merges))
    _ = s.Store.SavePlanMetrics(r.Context(), req.TenantID, saved.ID, map[string]any{
        "source":       source,
        "candidates":   st.Candidates,
        "merges":       st.Merges,
        "routeCount":   saved.RouteCount,
        "totalCost":    saved.TotalCost,
        "sanitized":    sanitized,
        "twoOpt":       req.TwoOpt,
        "solveMs":      elapsed.Milliseconds(),
    })

    s.Broker.Publish(saved.ID, SSEEvent{Type: "plan.created", Data: map[string]any{"planId": saved.ID, "planDate": saved.PlanDate}})
    s.Broker.Publish(saved.ID, SSEEvent{Type: "plan.completed", Data: map[string]any{"planId": saved.ID, "routeCount": saved.RouteCount, "totalCost": saved.TotalCost}})
    for i, rt := range saved.Routes {
        if rt.Unreachable {
            s.Broker.Publish(saved.ID, SSEEvent{Type: "plan.warning", Data: map[string]any{"planId": saved.ID, "route": i, "reason": "unreachable_arc"}})
        }
    }
    s.Pub.Emit(r.Context(), req.TenantID, "plan.completed", map[string]any{
        "planId": saved.ID, "planDate": saved.PlanDate, "routeCount": saved.RouteCount, "totalCost": saved.TotalCost,
    })
    writeJSON(w, http.StatusOK, saved)
}

// pendingOrders pages through all pending orders for a tenant.
func (s *Server) pendingOrders(ctx context.Context, tenant string) ([]model.OrderOut, error) {
    var out []model.OrderOut
    cursor := ""
    for {
        items, next, err := s.Store.ListOrders(ctx, tenant, "pending", cursor, 500)
        if err != nil { return nil, err }
        out = append(out, items...)
        if next == "" { break }
        cursor = next
    }
    return out, nil
}

// SolverConfigHandler returns default solver configuration
func (s *Server) SolverConfigHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/solver/config" || r.Method != http.MethodGet { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    defaults := map[string]any{
        "capacity":         s.Cfg.DefaultCapacity,
        "speedKph":         s.Cfg.DefaultSpeedKph,
        "matrixSource":     "haversine",
        "twoOpt":           false,
        "twoOptIterations": 50,
        "depot":            geo.DefaultDepot,
        "unreachableCost":  solver.Unreachable,
    }
    writeJSON(w, 200, map[string]any{"defaults": defaults})
}

// PlansIndexHandler handles GET /v1/plans
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/plans" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListPlans(r.Context(), tenant, cursor, limit)
    if err != nil { writeProblem(w, 500, "List plans failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET /v1/plans/{id} and GET /v1/plans/{id}/events/stream
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/plans/")
    if rest == path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) > 1 && parts[1] == "events" && len(parts) > 2 && parts[2] == "stream" {
        // SSE for plan events
        if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
        flusher, ok := w.(http.Flusher)
        if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
        w.Header().Set("Content-Type", "text/event-stream")
        w.Header().Set("Cache-Control", "no-cache")
        w.Header().Set("Connection", "keep-alive")
        ch := s.Broker.Subscribe(id)
        defer s.Broker.Unsubscribe(id, ch)
        // initial heartbeat
        fmt.Fprintf(w, "event: heartbeat\n")
        fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
        flusher.Flush()
        notify := r.Context().Done()
        for {
            select {
            case <-notify:
                return
            case evt := <-ch:
                b, _ := json.Marshal(evt.Data)
                fmt.Fprintf(w, "event: %s\n", evt.Type)
                fmt.Fprintf(w, "data: %s\n\n", string(b))
                flusher.Flush()
            case <-time.After(15 * time.Second):
                fmt.Fprintf(w, "event: heartbeat\n")
                fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
                flusher.Flush()
            }
        }
    }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    plan, err := s.Store.GetPlan(r.Context(), tenant, id)
    if err != nil {
        writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, plan)
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        p := s.getPrincipal(r)
        if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
        var req model.SubscriptionRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.TenantID == "" { req.TenantID = p.Tenant }
        if req.URL == "" { writeProblem(w, 400, "Missing url", "", r.URL.Path); return }
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        p := s.getPrincipal(r)
        if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
        if err != nil { writeProblem(w, 500, "List subscriptions failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// Subscription delete (admin)
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodDelete { w.WriteHeader(405); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Delete subscription failed", err.Error(), r.URL.Path); return }
    w.WriteHeader(204)
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/webhook-deliveries" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(405); return }
    status := r.URL.Query().Get("status")
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
    if err != nil { writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodPost { w.WriteHeader(405); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
    if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Retry delivery failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 202, map[string]int{"accepted": 1})
}

// Admin: solver metrics captured per plan
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/plan-metrics" || r.Method != http.MethodGet { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    planID := r.URL.Query().Get("planId")
    if planID == "" { writeProblem(w, 400, "Missing planId", "", r.URL.Path); return }
    items, err := s.Store.ListPlanMetrics(r.Context(), p.Tenant, planID)
    if err != nil { writeProblem(w, 500, "Metrics failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}

// DebugHandler exposes runtime info for operators.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(405); return }
    writeJSON(w, 200, map[string]any{
        "goVersion":  runtime.Version(),
        "goroutines": runtime.NumGoroutine(),
        "numCPU":     runtime.NumCPU(),
    })
}
