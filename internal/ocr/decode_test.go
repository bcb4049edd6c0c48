package ocr

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, tokens []string) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	return &Engine{
		cfg:  cfg,
		dict: &Dictionary{Tokens: tokens},
		log:  slog.Default(),
	}
}

func TestArgmaxTimesteps(t *testing.T) {
	data := []float32{
		0.1, 0.7, 0.2, // -> 1
		0.9, 0.05, 0.05, // -> 0
		0.2, 0.3, 0.5, // -> 2
	}
	indices, probs := argmaxTimesteps(data, 3, 3)
	assert.Equal(t, []int{1, 0, 2}, indices)
	assert.InDelta(t, 0.7, probs[0], 1e-6)
	assert.InDelta(t, 0.9, probs[1], 1e-6)
	assert.InDelta(t, 0.5, probs[2], 1e-6)
}

func TestDecodeGreedyBlankNeverEmitted(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	text, score := e.decodeGreedy([]int{0, 0, 0, 0}, []float32{0.99, 0.99, 0.99, 0.99})
	assert.Empty(t, text)
	assert.Zero(t, score)
}

func TestDecodeGreedyThreshold(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	e.cfg.TextThresh = 0.5
	text, _ := e.decodeGreedy([]int{1, 2}, []float32{0.9, 0.3})
	assert.Equal(t, "A", text)
}

func TestDecodeGreedyCollapsesRepeats(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	text, _ := e.decodeGreedy([]int{1, 1, 1, 2}, []float32{0.9, 0.9, 0.9, 0.9})
	assert.Equal(t, "AB", text)
}

func TestDecodeGreedyBlankSeparatesRepeats(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	text, _ := e.decodeGreedy([]int{1, 0, 1}, []float32{0.9, 0.9, 0.9})
	assert.Equal(t, "AA", text)
}

func TestDecodeGreedyKeepRepeats(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	e.cfg.KeepRepeats = true
	text, _ := e.decodeGreedy([]int{1, 1}, []float32{0.9, 0.9})
	assert.Equal(t, "AA", text)
}

func TestDecodeGreedyStripsNonAlphanumeric(t *testing.T) {
	e := testEngine(t, []string{"C", "-", "4"})
	text, _ := e.decodeGreedy([]int{1, 2, 3}, []float32{0.9, 0.9, 0.9})
	assert.Equal(t, "C4", text)
}

func TestDecodeGreedyOutOfRangeClassSkipped(t *testing.T) {
	e := testEngine(t, []string{"A"})
	text, score := e.decodeGreedy([]int{5, 1}, []float32{0.9, 0.9})
	assert.Equal(t, "A", text)
	assert.InDelta(t, 0.9, score, 1e-6)
}

func TestDecodeGreedyScoreIsMeanOfEmitted(t *testing.T) {
	e := testEngine(t, []string{"A", "B"})
	_, score := e.decodeGreedy([]int{1, 2}, []float32{0.8, 0.6})
	assert.InDelta(t, 0.7, score, 1e-6)
}

func TestDictionaryTokenIndexingAndSize(t *testing.T) {
	d := &Dictionary{Tokens: []string{"A", "B", "C"}}
	require.Equal(t, 3, d.Size())
	assert.Equal(t, "A", d.Token(1))
	assert.Equal(t, "C", d.Token(3))
	assert.Empty(t, d.Token(0))
	assert.Empty(t, d.Token(4))
}
