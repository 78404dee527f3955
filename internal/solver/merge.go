package solver

import "fmt"

// Stats counts what happened to each candidate saving during a run.
type Stats struct {
	Candidates   int `json:"candidates"`
	Merges       int `json:"merges"`
	SameRoute    int `json:"sameRouteSkips"`
	OverCapacity int `json:"capacitySkips"`
	NotEndpoint  int `json:"endpointSkips"`
}

// Engine owns the mutable partition of customers into routes. Routes
// live in an arena indexed by id; owner maps each customer to the id of
// its current route. A merge writes a brand-new arena entry and repoints
// owner for every customer on the merged route, so no stale reference to
// a superseded route can survive.
type Engine struct {
	m        *Matrix
	capacity int
	owner    []int   // customer index -> route id
	routes   [][]int // arena; superseded entries are nilled out
	stats    Stats
}

// NewEngine initializes one singleton route [0, c, 0] per customer.
// Capacity is the maximum customer count per route and must be >= 1.
func NewEngine(m *Matrix, capacity int) (*Engine, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d, must be >= 1", ErrBadCapacity, capacity)
	}
	n := m.Customers()
	e := &Engine{
		m:        m,
		capacity: capacity,
		owner:    make([]int, n+1),
		routes:   make([][]int, 0, 2*n),
	}
	for c := 1; c <= n; c++ {
		e.routes = append(e.routes, []int{Depot, c, Depot})
		e.owner[c] = c - 1
	}
	return e, nil
}

// Run consumes candidate savings in the given order, merging routes
// whenever the pair is feasible, and returns the final route set. The
// loop is strictly sequential: every feasibility check depends on the
// partition left behind by all prior merges.
func (e *Engine) Run(savings []Saving) *RouteSet {
	for _, sv := range savings {
		e.tryMerge(sv)
	}
	return e.finish()
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) tryMerge(sv Saving) {
	e.stats.Candidates++
	ida, idb := e.owner[sv.A], e.owner[sv.B]
	if ida == idb {
		e.stats.SameRoute++
		return
	}
	ra, rb := e.routes[ida], e.routes[idb]
	loadA, loadB := len(ra)-2, len(rb)-2
	if loadA+loadB > e.capacity {
		e.stats.OverCapacity++
		return
	}

	// A merge is legal only when A and B each sit next to a depot entry
	// in their own route. Orientation is unknown up front, so all four
	// endpoint configurations are checked.
	var merged []int
	switch {
	case tail(ra) == sv.A && head(rb) == sv.B:
		merged = splice(ra, rb)
	case head(ra) == sv.A && head(rb) == sv.B:
		merged = splice(reversed(ra), rb)
	case tail(ra) == sv.A && tail(rb) == sv.B:
		merged = splice(ra, reversed(rb))
	case head(ra) == sv.A && tail(rb) == sv.B:
		merged = splice(rb, ra)
	default:
		e.stats.NotEndpoint++
		return
	}

	id := len(e.routes)
	e.routes = append(e.routes, merged)
	for _, c := range merged[1 : len(merged)-1] {
		e.owner[c] = id
	}
	e.routes[ida] = nil
	e.routes[idb] = nil
	e.stats.Merges++
}

// finish collects the live routes in first-customer order, which is
// stable across runs on identical input.
func (e *Engine) finish() *RouteSet {
	seen := make(map[int]bool, len(e.routes))
	out := make([][]int, 0)
	for c := 1; c < len(e.owner); c++ {
		id := e.owner[c]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e.routes[id])
	}
	return &RouteSet{m: e.m, routes: out, stats: e.stats}
}

// head and tail are the first and last customers of a route, i.e. the
// nodes adjacent to the depot entries.
func head(r []int) int { return r[1] }
func tail(r []int) int { return r[len(r)-2] }

// splice joins x (minus its trailing depot) to y (minus its leading
// depot) into a fresh slice.
func splice(x, y []int) []int {
	out := make([]int, 0, len(x)+len(y)-2)
	out = append(out, x[:len(x)-1]...)
	out = append(out, y[1:]...)
	return out
}

func reversed(r []int) []int {
	out := make([]int, len(r))
	for i, v := range r {
		out[len(r)-1-i] = v
	}
	return out
}
