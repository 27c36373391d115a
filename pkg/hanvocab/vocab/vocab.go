package vocab

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
)

// Token is one decoded vocabulary entry. Index is its 0-based row in the
// source vocabulary and never changes after decoding.
type Token struct {
	Index int
	Text  string
}

// Collection is an ordered list of tokens.
type Collection []Token

// Indices returns the source index of every token, in collection order.
func (c Collection) Indices() []int {
	out := make([]int, len(c))
	for i, t := range c {
		out[i] = t.Index
	}
	return out
}


// Project returns the tokens of c whose Index appears in indices, in the
// order of indices. Used to map survivors back onto the untouched decoded
// vocabulary.
func (c Collection) Project(indices []int) (Collection, error) {
	byIndex := make(map[int]Token, len(c))
	for _, t := range c {
		byIndex[t.Index] = t
	}

	out := make(Collection, 0, len(indices))
	for _, idx := range indices {
		t, ok := byIndex[idx]
		if !ok {
			return nil, fmt.Errorf("project index %d: %w", idx, internalerr.ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}

// Decode turns a base64 vocabulary entry into text. Bytes that are not valid
// UTF-8 are read as Latin-1, so Decode never fails. Malformed base64 keeps
// whatever prefix the decoder managed to produce.
func Decode(encoded string) string {
	raw, _ := base64.StdEncoding.DecodeString(encoded)
	if utf8.Valid(raw) {
		return string(raw)
	}
	return latin1(raw)
}

func latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// Load reads a tiktoken-style vocabulary: one entry per line, the first
// whitespace-delimited field is the base64 token. Blank lines are skipped and
// do not take an index.
func Load(r io.Reader) (Collection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out Collection
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		out = append(out, Token{Index: len(out), Text: Decode(fields[0])})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan vocabulary: %w", err)
	}
	if len(out) == 0 {
		return nil, internalerr.ErrEmptyVocabulary
	}
	return out, nil
}

// LoadFile opens path and runs Load on it.
func LoadFile(path string) (Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return c, nil
}
