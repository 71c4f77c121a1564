package condition

import (
	"encoding/json"
	"sort"
)

// Set is an immutable set of condition IDs. The zero value is empty.
type Set struct {
	ids map[int]struct{}
}

// NewSet builds a Set from ids. Duplicates are ignored.
func NewSet(ids ...int) Set {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}

// Contains reports whether id is in the set.
func (s Set) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of IDs.
func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the IDs in ascending order.
func (s Set) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// Definition is one entry of a conditions catalog: the ID used in
// expressions and the predicate text the validator judges.
type Definition struct {
	ID   int    `json:"id"`
	Text string `json:"condition"`
}
