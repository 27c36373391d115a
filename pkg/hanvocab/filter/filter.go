// Package filter holds the curation stages and the pipeline that chains
// them. Every stage takes a collection and returns a new one; token indices
// are carried through unchanged so survivors can be traced back to the
// source vocabulary.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/hanvocab/pkg/hanvocab/vocab"
)

// StopSet is the stopword lookup used by RemoveStopwords.
type StopSet interface {
	IsStop(token string) bool
}

// TrimPunctuation strips leading and trailing non-word runes (underscore
// counts as non-word) and surrounding whitespace. Tokens trimmed to "" are
// kept; MinLength drops them later.
func TrimPunctuation(in vocab.Collection) vocab.Collection {
	out := make(vocab.Collection, len(in))
	for i, t := range in {
		out[i] = vocab.Token{Index: t.Index, Text: trimNonWord(t.Text)}
	}
	return out
}

func trimNonWord(s string) string {
	return strings.TrimSpace(strings.TrimFunc(s, isNonWord))
}

// isNonWord matches [\W_]: anything that is not a letter or number, plus
// the underscore. Combining marks and variation selectors are non-word.
func isNonWord(r rune) bool {
	if r == '_' {
		return true
	}
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// KeepChinese keeps tokens with at least one Han rune and no kana. Any kana
// marks the token as Japanese, however much Han it also carries.
func KeepChinese(in vocab.Collection) vocab.Collection {
	return keep(in, func(t vocab.Token) bool {
		return hasHan(t.Text) && !hasKana(t.Text)
	})
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// isKana covers Hiragana and Katakana (U+3040–U+30FF) and halfwidth
// Katakana (U+FF65–U+FF9F).
func isKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x30FF) || (r >= 0xFF65 && r <= 0xFF9F)
}

func hasKana(s string) bool {
	return strings.IndexFunc(s, isKana) >= 0
}

// MinLength returns a filter keeping tokens of at least n runes.
func MinLength(n int) func(vocab.Collection) vocab.Collection {
	return func(in vocab.Collection) vocab.Collection {
		return keep(in, func(t vocab.Token) bool {
			return utf8.RuneCountInString(t.Text) >= n
		})
	}
}

// RemoveStopwords returns a filter dropping tokens that exactly equal a
// stopword.
func RemoveStopwords(stops StopSet) func(vocab.Collection) vocab.Collection {
	return func(in vocab.Collection) vocab.Collection {
		return keep(in, func(t vocab.Token) bool {
			return !stops.IsStop(t.Text)
		})
	}
}

// Deduplicate keeps the first occurrence of every distinct text.
func Deduplicate(in vocab.Collection) vocab.Collection {
	seen := make(map[string]struct{}, len(in))
	return keep(in, func(t vocab.Token) bool {
		if _, ok := seen[t.Text]; ok {
			return false
		}
		seen[t.Text] = struct{}{}
		return true
	})
}

func keep(in vocab.Collection, pred func(vocab.Token) bool) vocab.Collection {
	out := make(vocab.Collection, 0, len(in))
	for _, t := range in {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
