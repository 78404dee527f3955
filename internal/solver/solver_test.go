package solver

import (
	"math/rand"
	"reflect"
	"testing"
)

func mustMatrix(t *testing.T, cost [][]float64) *Matrix {
	t.Helper()
	m, err := NewMatrix(cost)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	return m
}

func solve(t *testing.T, m *Matrix, capacity int) *RouteSet {
	t.Helper()
	eng, err := NewEngine(m, capacity)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng.Run(ComputeSavings(m))
}

// Two customers, generous capacity: the positive saving merges both
// round trips into one route of cost 25 instead of 40.
func TestMergeTwoCustomers(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, 10, 10},
		{10, 0, 5},
		{10, 5, 0},
	})
	rs := solve(t, m, 5)
	if rs.Len() != 1 {
		t.Fatalf("routes: got %d, want 1", rs.Len())
	}
	seq := rs.Route(0)
	if !reflect.DeepEqual(seq, []int{0, 1, 2, 0}) && !reflect.DeepEqual(seq, []int{0, 2, 1, 0}) {
		t.Fatalf("unexpected sequence %v", seq)
	}
	if got := rs.TotalCost(); got != 25 {
		t.Fatalf("total cost: got %v, want 25", got)
	}
}

// Same costs, capacity 1: the merge would load 2 customers on one
// vehicle, so both singletons must survive.
func TestCapacityForbidsMerge(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, 10, 10},
		{10, 0, 5},
		{10, 5, 0},
	})
	rs := solve(t, m, 1)
	if rs.Len() != 2 {
		t.Fatalf("routes: got %d, want 2", rs.Len())
	}
	if got := rs.TotalCost(); got != 40 {
		t.Fatalf("total cost: got %v, want 40", got)
	}
	if st := rs.Stats(); st.OverCapacity == 0 {
		t.Fatalf("expected a capacity skip, stats %+v", st)
	}
}

// Three customers, capacity 2, symmetric triangle where pair (1,3) has a
// negative saving: exactly one merge happens and customer 1 stays alone.
func TestPartialMergeLeavesSingleton(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, 10, 10, 10},
		{10, 0, 5, 25},
		{10, 5, 0, 4},
		{10, 25, 4, 0},
	})
	rs := solve(t, m, 2)
	if rs.Len() != 2 {
		t.Fatalf("routes: got %d, want 2", rs.Len())
	}
	assertPartition(t, rs, 3)
	for i := 0; i < rs.Len(); i++ {
		if rs.Load(i) > 2 {
			t.Fatalf("route %d load %d exceeds capacity", i, rs.Load(i))
		}
	}
	// saving(2,3)=16 beats saving(1,2)=15; the second merge then fails
	// on capacity, so 1 remains a singleton.
	var singleton []int
	for i := 0; i < rs.Len(); i++ {
		if rs.Load(i) == 1 {
			singleton = rs.Route(i)
		}
	}
	if !reflect.DeepEqual(singleton, []int{0, 1, 0}) {
		t.Fatalf("expected singleton [0 1 0], got %v", singleton)
	}
}

func TestBadCapacityRejected(t *testing.T) {
	m := mustMatrix(t, [][]float64{{0, 1}, {1, 0}})
	for _, q := range []int{0, -1} {
		if _, err := NewEngine(m, q); err == nil {
			t.Fatalf("capacity %d: expected error", q)
		}
	}
}

func TestSingleCustomer(t *testing.T) {
	m := mustMatrix(t, [][]float64{{0, 7}, {7, 0}})
	rs := solve(t, m, 3)
	if rs.Len() != 1 || !reflect.DeepEqual(rs.Route(0), []int{0, 1, 0}) {
		t.Fatalf("unexpected result: %v", rs.Routes())
	}
	if got := rs.TotalCost(); got != 14 {
		t.Fatalf("total cost: got %v, want 14", got)
	}
}

func TestUnreachableArcFlagged(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, Unreachable},
		{Unreachable, 0},
	})
	rs := solve(t, m, 2)
	if !rs.HasUnreachableArc(0) {
		t.Fatal("expected unreachable arc to be flagged")
	}
}

func randomMatrix(rng *rand.Rand, n int) [][]float64 {
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, n+1)
		for j := range cost[i] {
			if i != j {
				cost[i][j] = 1 + 100*rng.Float64()
			}
		}
	}
	return cost
}

// Partition, capacity, depot-boundary and non-worsening properties over
// randomized asymmetric instances.
func TestRunInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		n := 2 + rng.Intn(30)
		q := 1 + rng.Intn(6)
		m := mustMatrix(t, randomMatrix(rng, n))
		rs := solve(t, m, q)

		assertPartition(t, rs, n)
		singles := 0.0
		for c := 1; c <= n; c++ {
			singles += m.Cost(Depot, c) + m.Cost(c, Depot)
		}
		if rs.TotalCost() > singles+1e-6 {
			t.Fatalf("n=%d q=%d: merged cost %v worse than singletons %v", n, q, rs.TotalCost(), singles)
		}
		for i := 0; i < rs.Len(); i++ {
			if rs.Load(i) > q {
				t.Fatalf("n=%d q=%d: route %d load %d over capacity", n, q, i, rs.Load(i))
			}
			if rs.Load(i) < 1 {
				t.Fatalf("n=%d q=%d: empty route %d", n, q, i)
			}
		}
	}
}

func assertPartition(t *testing.T, rs *RouteSet, n int) {
	t.Helper()
	seen := make(map[int]int)
	for i := 0; i < rs.Len(); i++ {
		r := rs.Route(i)
		if r[0] != Depot || r[len(r)-1] != Depot {
			t.Fatalf("route %d not depot-bounded: %v", i, r)
		}
		for _, c := range r[1 : len(r)-1] {
			if c == Depot {
				t.Fatalf("depot inside route %d: %v", i, r)
			}
			seen[c]++
		}
	}
	for c := 1; c <= n; c++ {
		if seen[c] != 1 {
			t.Fatalf("customer %d appears %d times", c, seen[c])
		}
	}
	if len(seen) != n {
		t.Fatalf("partition covers %d customers, want %d", len(seen), n)
	}
}

// Two independent runs on identical input must agree on groupings and
// total cost.
func TestRunDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := mustMatrix(t, randomMatrix(rng, 20))
	a := solve(t, m, 4)
	b := solve(t, m, 4)
	if a.TotalCost() != b.TotalCost() {
		t.Fatalf("costs differ: %v vs %v", a.TotalCost(), b.TotalCost())
	}
	if !reflect.DeepEqual(a.Routes(), b.Routes()) {
		t.Fatalf("routes differ:\n%v\n%v", a.Routes(), b.Routes())
	}
}

// A chain of profitable merges must repoint ownership for every customer
// of the merged route, not just the pair that triggered it.
func TestOwnershipAfterChainedMerges(t *testing.T) {
	// Customers along a line at distance 1 apart, depot at one end.
	// Depot->i costs i, i->j costs |i-j|; every adjacent pair has a
	// large saving, so all four customers collapse into a single route.
	n := 4
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, n+1)
		for j := range cost[i] {
			d := i - j
			if d < 0 {
				d = -d
			}
			cost[i][j] = float64(d)
		}
	}
	m := mustMatrix(t, cost)
	rs := solve(t, m, 10)
	if rs.Len() != 1 {
		t.Fatalf("routes: got %d, want 1: %v", rs.Len(), rs.Routes())
	}
	assertPartition(t, rs, n)
	if got := rs.TotalCost(); got != 8 {
		t.Fatalf("total cost: got %v, want 8 (out and back the line)", got)
	}
}
