package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDictionary(t *testing.T) {
	d, err := LoadDictionary(writeDict(t, "A\nB\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Size())
	assert.Equal(t, []string{"A", "B", "1"}, d.Tokens)
}

func TestLoadDictionaryStripsLeadingBOM(t *testing.T) {
	d, err := LoadDictionary(writeDict(t, "\uFEFFA\nB\n"))
	require.NoError(t, err)
	require.Equal(t, 2, d.Size())
	assert.Equal(t, "A", d.Tokens[0], "BOM must not become part of the first token")
}

func TestLoadDictionarySkipsBlankLinesAndCR(t *testing.T) {
	d, err := LoadDictionary(writeDict(t, "A\r\n\r\nB\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, d.Tokens)
}

func TestLoadDictionaryEmptyFile(t *testing.T) {
	_, err := LoadDictionary(writeDict(t, "\n\n"))
	assert.Error(t, err)
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDictionaryTokenIndexing(t *testing.T) {
	d := &Dictionary{Tokens: []string{"A", "B"}}
	assert.Equal(t, "", d.Token(0), "class 0 is the CTC blank")
	assert.Equal(t, "A", d.Token(1))
	assert.Equal(t, "B", d.Token(2))
	assert.Equal(t, "", d.Token(3))
}
