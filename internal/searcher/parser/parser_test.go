package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"Learn", []string{"learn"}},
		{"learn  Rust", []string{"learn", "rust"}},
		{"\"run\", 5k!", []string{"run", "5k"}},
		{"rust rust RUST", []string{"rust"}},
		{"-- !!", []string{}},
	}
	for _, tc := range cases {
		plan := Parse(tc.in)
		assert.Equal(t, tc.want, plan.Terms, "query %q", tc.in)
		assert.Equal(t, tc.in, plan.RawQuery)
		assert.Equal(t, len(tc.want) == 0, plan.Empty())
	}
}
