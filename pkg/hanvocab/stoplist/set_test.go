package stoplist

import (
	"testing"
)

func TestSetBasic(t *testing.T) {
	set := NewSet([]string{"的", "我们", "and"})

	if !set.IsStop("我们") {
		t.Error("'我们' should be a stopword")
	}

	if set.IsStop("我") {
		t.Error("'我' is a prefix, not an exact match, and should not be a stopword")
	}

	if set.IsStop("AND") {
		t.Error("matching is case sensitive")
	}
}

func TestSetDeduplicates(t *testing.T) {
	set := NewSet([]string{"b", "a", "c", "a"})

	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
	for _, w := range []string{"a", "b", "c"} {
		if !set.IsStop(w) {
			t.Errorf("%q should be a stopword", w)
		}
	}
}

func TestSetIgnoresLaterInputChanges(t *testing.T) {
	words := []string{"x"}
	set := NewSet(words)
	words[0] = "y"

	if !set.IsStop("x") || set.IsStop("y") {
		t.Error("mutating the input slice must not change the set")
	}
}

func TestEmptySet(t *testing.T) {
	set := NewSet(nil)
	if set.IsStop("anything") {
		t.Error("Empty set should have no stopwords")
	}
	if set.Len() != 0 {
		t.Error("Empty set should have length 0")
	}

	var nilSet *Set
	if nilSet.IsStop("x") || nilSet.Len() != 0 {
		t.Error("nil set should behave as empty")
	}
}
