package stoplist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads a reference word list and returns the first
// whitespace-delimited field of each non-blank line.
//
// Format (jieba dictionaries):
//
//	word freq [tag]
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var words []string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		words = append(words, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ParseFile opens path and runs Parse on it.
func ParseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	defer f.Close()

	words, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse reference %s: %w", path, err)
	}
	return words, nil
}
