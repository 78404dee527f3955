// Package solver implements the Clarke-Wright savings heuristic for
// capacitated delivery routing: pairwise savings over a travel-cost
// matrix, greedy endpoint merging under a per-vehicle stop limit.
package solver

import (
	"errors"
	"fmt"
)

// Depot is the fixed start/end node of every route.
const Depot = 0

// Unreachable is the sentinel cost for pairs the matrix provider could
// not route. Upstream cleaning replaces missing durations with this
// value, so a genuine arc never reaches it.
const Unreachable = 999999

var (
	ErrBadMatrix   = errors.New("solver: invalid cost matrix")
	ErrBadCapacity = errors.New("solver: invalid capacity")
)

// Matrix is an immutable square travel-cost matrix. Row/column 0 is the
// depot; rows 1..N are customers. Costs need not be symmetric.
type Matrix struct {
	cost [][]float64
}

// NewMatrix validates and copies cost. The matrix must be square, at
// least 1x1, with no negative entries.
func NewMatrix(cost [][]float64) (*Matrix, error) {
	n := len(cost)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadMatrix)
	}
	cp := make([][]float64, n)
	for i, row := range cost {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrBadMatrix, i, len(row), n)
		}
		cp[i] = make([]float64, n)
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("%w: negative cost %v at [%d][%d]", ErrBadMatrix, v, i, j)
			}
			cp[i][j] = v
		}
	}
	return &Matrix{cost: cp}, nil
}

// Nodes returns the node count including the depot (N+1).
func (m *Matrix) Nodes() int { return len(m.cost) }

// Customers returns N, the number of customer nodes.
func (m *Matrix) Customers() int { return len(m.cost) - 1 }

// Cost returns the travel cost from a to b.
func (m *Matrix) Cost(a, b int) float64 { return m.cost[a][b] }

// SequenceCost sums consecutive arc costs over a node sequence.
func (m *Matrix) SequenceCost(seq []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(seq); i++ {
		total += m.cost[seq[i]][seq[i+1]]
	}
	return total
}
