package main

import (
	"sort"
)

// levenshtein returns the rune edit distance between a and b.
func levenshtein(a, b string) int {
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
	for i, ca := range ra {
		diag := row[0]
		row[0] = i + 1
		for j, cb := range rb {
			sub := diag
			if ca != cb {
				sub++
			}
			diag = row[j+1]
			row[j+1] = min(row[j]+1, row[j+1]+1, sub)
		}
	}
	return row[len(rb)]
}

// maxSuggestions caps "did you mean" output.
const maxSuggestions = 3

// suggest returns up to maxSuggestions candidates closest to input by edit
// distance. Exact matches and duplicates are left out.
func suggest(input string, candidates []string) []string {
	type candidate struct {
		name string
		dist int
	}

	maxDist := max(len(input)/2, 3)

	seen := make(map[string]bool, len(candidates))
	var ranked []candidate
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if d := levenshtein(input, c); d > 0 && d <= maxDist {
			ranked = append(ranked, candidate{name: c, dist: d})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].name < ranked[j].name
	})

	limit := min(len(ranked), maxSuggestions)
	result := make([]string, limit)
	for i := 0; i < limit; i++ {
		result[i] = ranked[i].name
	}
	return result
}
