package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"learn", "learn", 0},
		{"lern", "learn", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"über", "uber", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b), "%q -> %q", tc.a, tc.b)
		assert.Equal(t, tc.want, Distance(tc.b, tc.a), "symmetry %q <- %q", tc.a, tc.b)
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("lern", "learn", 1))
	assert.False(t, Within("ab", "abcdef", 2))
	assert.True(t, Within("run", "ran", 2))
}
