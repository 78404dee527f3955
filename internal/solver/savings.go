package solver

import "sort"

// Saving is the cost avoided by serving customers A and B on one route
// instead of two separate depot round trips:
//
//	value = cost[0][A] + cost[0][B] - cost[A][B]
type Saving struct {
	Value float64
	A, B  int // customer indices, A < B
}

// ComputeSavings returns the savings for every unordered customer pair,
// sorted by value descending. Non-positive savings are dropped: linking
// such a pair can never reduce total cost. Ties are broken by ascending
// (A, B) so identical inputs always yield identical orderings.
func ComputeSavings(m *Matrix) []Saving {
	n := m.Customers()
	out := make([]Saving, 0, n*(n-1)/2)
	for a := 1; a <= n; a++ {
		for b := a + 1; b <= n; b++ {
			v := m.Cost(Depot, a) + m.Cost(Depot, b) - m.Cost(a, b)
			if v > 0 {
				out = append(out, Saving{Value: v, A: a, B: b})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
