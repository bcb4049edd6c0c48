package ocr

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Dictionary maps CTC class indices to tokens. Class 0 is the blank, so
// token i corresponds to class i+1.
type Dictionary struct {
	Tokens []string
}

// LoadDictionary reads a one-token-per-line dictionary file. A UTF-8 BOM on
// the first line is stripped; blank lines are kept out.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var tokens []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return &Dictionary{Tokens: tokens}, nil
}

// Token returns the token for a non-blank class index, or "" when the index
// falls outside the dictionary.
func (d *Dictionary) Token(class int) string {
	i := class - 1
	if i < 0 || i >= len(d.Tokens) {
		return ""
	}
	return d.Tokens[i]
}

// Size returns the number of non-blank tokens.
func (d *Dictionary) Size() int { return len(d.Tokens) }
