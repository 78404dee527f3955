package solver

// TwoOpt applies a 2-opt pass to a single depot-bounded route, reversing
// interior segments while that reduces the route's cost. The depot
// entries stay fixed and the customer set is untouched, so capacity and
// partition properties are unaffected. Returns the improved sequence.
func TwoOpt(m *Matrix, route []int, iterations int) []int {
	if iterations <= 0 {
		iterations = 1
	}
	best := append([]int(nil), route...)
	bestCost := m.SequenceCost(best)
	n := len(best)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				cand := twoOptSwap(best, i, k)
				if c := m.SequenceCost(cand); c+1e-9 < bestCost {
					best = cand
					bestCost = c
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(seq []int, i, k int) []int {
	out := make([]int, len(seq))
	copy(out, seq[:i])
	pos := i
	// reverse i..k
	for j := k; j >= i; j-- {
		out[pos] = seq[j]
		pos++
	}
	copy(out[pos:], seq[k+1:])
	return out
}
