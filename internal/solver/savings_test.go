package solver

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestComputeSavingsValuesAndOrder(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{0, 10, 10, 10},
		{10, 0, 5, 25},
		{10, 5, 0, 4},
		{10, 25, 4, 0},
	})
	got := ComputeSavings(m)
	want := []Saving{
		{Value: 16, A: 2, B: 3},
		{Value: 15, A: 1, B: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("savings: got %v, want %v", got, want)
	}
}

func TestComputeSavingsDropsNonPositive(t *testing.T) {
	// cost[1][2] equals the two depot legs, saving is exactly zero
	m := mustMatrix(t, [][]float64{
		{0, 3, 4},
		{3, 0, 7},
		{4, 7, 0},
	})
	if got := ComputeSavings(m); len(got) != 0 {
		t.Fatalf("expected no positive savings, got %v", got)
	}
}

func TestComputeSavingsTieBreak(t *testing.T) {
	// All pairs save exactly 2; order must be ascending (A,B)
	m := mustMatrix(t, [][]float64{
		{0, 2, 2, 2},
		{2, 0, 2, 2},
		{2, 2, 0, 2},
		{2, 2, 2, 0},
	})
	got := ComputeSavings(m)
	want := []Saving{
		{Value: 2, A: 1, B: 2},
		{Value: 2, A: 1, B: 3},
		{Value: 2, A: 2, B: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tie-break order: got %v, want %v", got, want)
	}
}

func TestComputeSavingsSortedDescending(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := mustMatrix(t, randomMatrix(rng, 25))
	got := ComputeSavings(m)
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Value > got[j].Value }) {
		t.Fatal("savings not sorted descending")
	}
	for _, s := range got {
		if s.A >= s.B || s.A < 1 {
			t.Fatalf("bad pair (%d,%d)", s.A, s.B)
		}
		if s.Value <= 0 {
			t.Fatalf("non-positive saving survived: %v", s)
		}
	}
}

func TestNewMatrixRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		cost [][]float64
	}{
		{"empty", [][]float64{}},
		{"ragged", [][]float64{{0, 1}, {1}}},
		{"negative", [][]float64{{0, -1}, {1, 0}}},
	}
	for _, tc := range cases {
		if _, err := NewMatrix(tc.cost); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestMatrixIsCopied(t *testing.T) {
	raw := [][]float64{{0, 1}, {2, 0}}
	m := mustMatrix(t, raw)
	raw[0][1] = 99
	if m.Cost(0, 1) != 1 {
		t.Fatal("matrix shares storage with caller")
	}
}

func TestTwoOptKeepsEndpointsAndImproves(t *testing.T) {
	// Line metric again: [0,1,3,2,4,0] is worse than sorted order.
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
	got := TwoOpt(m, []int{0, 1, 3, 2, 4, 0}, 10)
	if got[0] != Depot || got[len(got)-1] != Depot {
		t.Fatalf("depot moved: %v", got)
	}
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 0}) {
		t.Fatalf("2-opt: got %v, want [0 1 2 3 4 0]", got)
	}
	if c := m.SequenceCost(got); c != 8 {
		t.Fatalf("cost after 2-opt: got %v, want 8", c)
	}
}
