package generic

// Set is an unordered collection of distinct values.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add returns true if the item was not already present.
func (s Set[T]) Add(item T) bool {
	if _, found := s[item]; found {
		return false
	}
	s[item] = struct{}{}
	return true
}

// Contains returns true only if every item is present.
func (s Set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := s[item]; !found {
			return false
		}
	}
	return true
}

func (s Set[T]) Count() int {
	return len(s)
}

func (s Set[T]) Remove(item T) bool {
	if _, found := s[item]; !found {
		return false
	}
	delete(s, item)
	return true
}

// Map builds a Set from f applied to each item, e.g. to normalise case.
func Map[T any, U comparable](items []T, f func(T) U) Set[U] {
	s := make(Set[U], len(items))
	for _, item := range items {
		s[f(item)] = struct{}{}
	}
	return s
}
