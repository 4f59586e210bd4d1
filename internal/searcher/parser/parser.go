// Package parser turns a raw query string into the terms the engine looks
// up. Terms are whitespace-separated, lower-cased and ANDed.
package parser

import (
	"strings"
	"unicode"
)

type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Empty reports whether the plan has nothing to look up.
func (p *QueryPlan) Empty() bool { return len(p.Terms) == 0 }

// Parse splits query on whitespace, lower-cases each word and trims
// punctuation from its edges. Words left empty are dropped, as are repeats.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(query) {
		term := strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		plan.Terms = append(plan.Terms, term)
	}
	return plan
}
