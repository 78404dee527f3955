package solver

// RouteSet is the read-only result of a merge run: deduplicated,
// non-overlapping routes, each starting and ending at the depot.
type RouteSet struct {
	m      *Matrix
	routes [][]int
	stats  Stats
}

// Len returns the number of routes.
func (rs *RouteSet) Len() int { return len(rs.routes) }

// Route returns a copy of route i's node sequence.
func (rs *RouteSet) Route(i int) []int {
	return append([]int(nil), rs.routes[i]...)
}

// Routes returns copies of all route sequences in stable order.
func (rs *RouteSet) Routes() [][]int {
	out := make([][]int, len(rs.routes))
	for i := range rs.routes {
		out[i] = rs.Route(i)
	}
	return out
}

// Load returns the customer count of route i, excluding the depot.
func (rs *RouteSet) Load(i int) int { return len(rs.routes[i]) - 2 }

// Cost returns the total travel cost of route i.
func (rs *RouteSet) Cost(i int) float64 { return rs.m.SequenceCost(rs.routes[i]) }

// TotalCost sums the cost of every route.
func (rs *RouteSet) TotalCost() float64 {
	total := 0.0
	for i := range rs.routes {
		total += rs.Cost(i)
	}
	return total
}

// HasUnreachableArc reports whether route i traverses an arc at or above
// the unreachable sentinel. Such a route is feasible by the algorithm's
// rules but should be surfaced as a reporting warning.
func (rs *RouteSet) HasUnreachableArc(i int) bool {
	r := rs.routes[i]
	for j := 0; j+1 < len(r); j++ {
		if rs.m.Cost(r[j], r[j+1]) >= Unreachable {
			return true
		}
	}
	return false
}

// Stats returns the merge counters from the producing run.
func (rs *RouteSet) Stats() Stats { return rs.stats }
