package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"lowercases", "Learn Swift", []string{"learn", "swift"}},
		{"punctuation", "run,5k!daily-run", []string{"run", "5k", "daily"}},
		{"drops single chars", "a b cd e", []string{"cd"}},
		{"dedup keeps order", "rust go rust Go", []string{"rust", "go"}},
		{"unicode", "Café über", []string{"café", "über"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, []string{"l", "le", "lea", "lear"}, Prefixes("learn"))
	assert.Nil(t, Prefixes("x"))
	assert.Equal(t, []string{"ü", "üb"}, Prefixes("übe"))
}

func TestWordsKeepsCase(t *testing.T) {
	assert.Equal(t, []string{"Learn", "a", "Swift"}, Words("Learn a Swift."))
}
