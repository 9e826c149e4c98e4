package ingest

// unresolved marks a level that relaxation has not computed yet. It is never
// read as generation 0.
const unresolved = -1

// LevelReport describes how the level solver ran.
type LevelReport struct {
	RelaxRounds     int  `json:"relax_rounds"`
	RelaxConverged  bool `json:"relax_converged"`
	Defaulted       int  `json:"defaulted"` // still unresolved after relaxation
	Promoted        int  `json:"promoted"`  // raised to 1 by the sibling rule
	SpouseRounds    int  `json:"spouse_rounds"`
	SpouseConverged bool `json:"spouse_converged"`
}

// solveLevels assigns a generation to every known person. Levels are indexed
// like r.people. Both iterative passes stop after a round without change or
// after maxRounds rounds.
func solveLevels(r *roster, maxRounds int) ([]int, LevelReport) {
	var report LevelReport

	n := r.len()
	parents := make([][]int, n)
	spouses := make([][]int, n)
	hasSibling := make([]bool, n)
	for i := 0; i < n; i++ {
		parents[i] = r.known(i, relParents)
		spouses[i] = r.known(i, relSpouses)
		// A sibling relationship is shared by both people, whichever line
		// declared it.
		for _, s := range r.known(i, relSiblings) {
			if s != i {
				hasSibling[i] = true
				hasSibling[s] = true
			}
		}
	}

	levels := make([]int, n)
	for i := range levels {
		levels[i] = unresolved
	}

	for round := 0; round < maxRounds; round++ {
		report.RelaxRounds++
		changed := false
		for i := range levels {
			next := 0
			if len(parents[i]) > 0 {
				best := unresolved
				for _, p := range parents[i] {
					best = max(best, levels[p])
				}
				if best == unresolved {
					continue
				}
				next = best + 1
			}
			if levels[i] != next {
				levels[i] = next
				changed = true
			}
		}
		if !changed {
			report.RelaxConverged = true
			break
		}
	}

	for i, l := range levels {
		if l == unresolved {
			levels[i] = 0
			report.Defaulted++
		}
	}

	// Level 0 means no parents anywhere in the tree. Someone with a known
	// sibling belongs to a descendant generation even without parent data.
	for i, l := range levels {
		if l == 0 && hasSibling[i] {
			levels[i] = 1
			report.Promoted++
		}
	}

	for round := 0; round < maxRounds; round++ {
		report.SpouseRounds++
		changed := false
		for i := range levels {
			for _, s := range spouses[i] {
				l := max(levels[i], levels[s])
				if levels[i] != l {
					levels[i] = l
					changed = true
				}
				if levels[s] != l {
					levels[s] = l
					changed = true
				}
			}
		}
		if !changed {
			report.SpouseConverged = true
			break
		}
	}

	return levels, report
}
