package evidence

import "sort"

// Set is an unordered collection of evidence tokens.
// The zero value is not usable; create one with NewSet.
type Set map[Evidence]struct{}

// NewSet returns a set holding the given tokens.
func NewSet(tokens ...Evidence) Set {
	s := make(Set, len(tokens))
	for _, e := range tokens {
		s[e] = struct{}{}
	}
	return s
}

// Add inserts e. Adding a token already present is a no-op.
func (s Set) Add(e Evidence) {
	s[e] = struct{}{}
}

// Merge adds every token of other into s.
func (s Set) Merge(other Set) {
	for e := range other {
		s[e] = struct{}{}
	}
}

// Union returns a new set with the tokens of both s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	out.Merge(s)
	out.Merge(other)
	return out
}

// Contains reports whether e is in s.
func (s Set) Contains(e Evidence) bool {
	_, ok := s[e]
	return ok
}

// ContainsAny reports whether at least one of tokens is in s.
func (s Set) ContainsAny(tokens ...Evidence) bool {
	for _, e := range tokens {
		if s.Contains(e) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every token of s is also in other.
// The empty set is a subset of every set.
func (s Set) SubsetOf(other Set) bool {
	for e := range s {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}

func (s Set) Len() int { return len(s) }

// Sorted returns the tokens in vocabulary order.
func (s Set) Sorted() []Evidence {
	out := make([]Evidence, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the stable identifiers of the tokens in vocabulary order.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, e := range sorted {
		out[i] = e.String()
	}
	return out
}
