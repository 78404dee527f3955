package model

// Core domain types for order import and plan reporting.

type GeoPoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

type OrderIn struct {
    ExternalRef string         `json:"externalRef,omitempty"`
    Location    *GeoPoint      `json:"location"`
    Demand      int            `json:"demand,omitempty"` // stop count, defaults to 1
    Attributes  map[string]any `json:"attributes,omitempty"`
}

type OrderOut struct {
    ID          string   `json:"id"`
    TenantID    string   `json:"tenantId"`
    ExternalRef string   `json:"externalRef,omitempty"`
    Location    GeoPoint `json:"location"`
    Demand      int      `json:"demand"`
    Status      string   `json:"status"`
}

// SolveRequest asks for a plan over either an inline cost matrix or the
// tenant's pending orders. MatrixSource selects how the matrix is built
// when none is supplied inline: "haversine" (default) or "osrm".
type SolveRequest struct {
    TenantID         string      `json:"tenantId"`
    PlanDate         string      `json:"planDate,omitempty"`
    Capacity         int         `json:"capacity,omitempty"` // customers per vehicle
    Depot            *GeoPoint   `json:"depot,omitempty"`
    Matrix           [][]float64 `json:"matrix,omitempty"`
    MatrixSource     string      `json:"matrixSource,omitempty"`
    SpeedKph         float64     `json:"speedKph,omitempty"`
    TwoOpt           bool        `json:"twoOpt,omitempty"`
    TwoOptIterations int         `json:"twoOptIterations,omitempty"`
}

// RouteOut is one vehicle's depot-bounded visiting sequence.
type RouteOut struct {
    Seq         []int    `json:"seq"`                // node indices, depot = 0
    OrderIDs    []string `json:"orderIds,omitempty"` // parallel to the customers in Seq
    Load        int      `json:"load"`
    Cost        float64  `json:"cost"`
    Unreachable bool     `json:"unreachableArc,omitempty"`
}

// SolveStats mirrors the engine's merge counters for reporting.
type SolveStats struct {
    Candidates   int `json:"candidates"`
    Merges       int `json:"merges"`
    SameRoute    int `json:"sameRouteSkips"`
    OverCapacity int `json:"capacitySkips"`
    NotEndpoint  int `json:"endpointSkips"`
}

type Plan struct {
    ID         string     `json:"id"`
    TenantID   string     `json:"tenantId"`
    PlanDate   string     `json:"planDate,omitempty"`
    Capacity   int        `json:"capacity"`
    Routes     []RouteOut `json:"routes"`
    TotalCost  float64    `json:"totalCost"`
    RouteCount int        `json:"routeCount"`
    Stats      SolveStats `json:"stats"`
    CreatedAt  string     `json:"createdAt,omitempty"`
}

type SubscriptionRequest struct {
    TenantID string   `json:"tenantId"`
    URL      string   `json:"url"`
    Events   []string `json:"events"`
    Secret   string   `json:"secret"`
}

type Subscription struct {
    ID       string   `json:"id"`
    TenantID string   `json:"tenantId"`
    URL      string   `json:"url"`
    Events   []string `json:"events"`
    Secret   string   `json:"secret,omitempty"`
}
