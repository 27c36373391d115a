package stoplist

// Set is an immutable stopword set. The zero value is empty and usable.
type Set struct {
	stops map[string]struct{}
}

// NewSet creates a set from the given words. Duplicates collapse.
func NewSet(words []string) *Set {
	stops := make(map[string]struct{}, len(words))
	for _, w := range words {
		stops[w] = struct{}{}
	}
	return &Set{stops: stops}
}

// IsStop reports whether token is exactly a stopword.
func (s *Set) IsStop(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.stops[token]
	return ok
}

// Len returns the number of distinct stopwords.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.stops)
}
