package index

import "sort"

// Fields records which parts of a record contributed a term. Lookups take a
// mask and only return postings that share at least one bit with it.
type Fields uint8

const (
	FieldText Fields = 1 << iota
	FieldKind
	FieldCategory
	FieldDate

	AllFields = FieldText | FieldKind | FieldCategory | FieldDate
)

// Posting maps record id to the fields that produced the term for it.
type Posting map[string]Fields

// IDSet is a set of record ids.
type IDSet map[string]struct{}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every id of other to s.
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Intersect returns the ids present in both sets.
func (s IDSet) Intersect(other IDSet) IDSet {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	out := make(IDSet, len(small))
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (p Posting) collect(into IDSet, fields Fields) {
	for id, f := range p {
		if f&fields != 0 {
			into[id] = struct{}{}
		}
	}
}
