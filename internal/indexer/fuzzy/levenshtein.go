// Package fuzzy computes Levenshtein edit distance over runes.
package fuzzy

// Distance returns the minimum number of single-rune insertions, deletions
// and substitutions turning a into b. It keeps a single row of the DP table,
// sized to the shorter input.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			above := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(above+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(rb)]
}

// Within reports whether Distance(a, b) <= max. It bails out early when the
// length difference alone exceeds max.
func Within(a, b string, max int) bool {
	la, lb := len([]rune(a)), len([]rune(b))
	if d := la - lb; d > max || -d > max {
		return false
	}
	return Distance(a, b) <= max
}
