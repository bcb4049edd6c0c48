package accumulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"CR400BF", "CR400BF", 0},
		{"CR4008F", "CR400BF", 1},
		{"CRH380BL", "CRH380BG", 1},
		{"", "ABC", 3},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestSplitPrefixNumber(t *testing.T) {
	tests := []struct {
		in, prefix, number string
	}{
		{"CR400BF5144", "CR400BF", "5144"},
		{"CRH380BL2144", "CRH380BL", "2144"},
		{"12345", "", "12345"},
		{"CRH", "CRH", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		p, n := SplitPrefixNumber(tt.in)
		assert.Equal(t, tt.prefix, p, tt.in)
		assert.Equal(t, tt.number, n, tt.in)
	}
}

func TestSuffixPrefixOverlap(t *testing.T) {
	assert.Equal(t, 3, suffixPrefixOverlap("CRH380", "380BL21"))
	assert.Equal(t, 0, suffixPrefixOverlap("ABC", "XYZ"))
	assert.Equal(t, 2, suffixPrefixOverlap("2144", "44CRH"))
}

func TestCombineMergesOverlappingFragments(t *testing.T) {
	a := newTest(t)
	got := a.combine([]string{"CRH380BL", "380BL2144"})
	assert.Equal(t, "CRH380BL2144", got)
}

func TestCombineMergesBackward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrainType = 0
	a := New(cfg, nil)
	// The seed is the first longest fragment; the other one can only attach
	// on its left, through the backward scan direction.
	got := a.combine([]string{"456789", "123456"})
	assert.Equal(t, "123456789", got)
}

func TestCombinePrefersLongestOverlapFirst(t *testing.T) {
	a := newTest(t)
	got := a.combine([]string{"CRH380BL21", "L2144", "BL2144"})
	assert.Equal(t, "CRH380BL2144", got)
}

func TestCombineSkipsContainedFragments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrainType = 0
	a := New(cfg, nil)
	// "21421" already sits inside the seed; a suffix/prefix overlap hit must
	// not re-append its characters.
	got := a.combine([]string{"214214", "21421"})
	assert.Equal(t, "214214", got)
}

func TestCombineSeedPrefersValidPrefix(t *testing.T) {
	a := newTest(t)
	// The longer fragment has no model prefix; the seed must still be the
	// prefixed one so the merge anchors on it.
	got := a.combine([]string{"8888888888888", "CRH380BL2144"})
	assert.Equal(t, "CRH380BL2144", got)
}

func TestCombineDropsDisjointNoise(t *testing.T) {
	a := newTest(t)
	got := a.combine([]string{"CRH380BL2144", "ZZZQQQ"})
	assert.Equal(t, "CRH380BL2144", got)
}

func TestCorrectFixesPrefixAgainstWhitelist(t *testing.T) {
	a := newTest(t)
	got := a.combine([]string{"CR4008F5144"})
	assert.Equal(t, "CR400BF5144", got)
}

func TestCorrectSubstitutesBadlyGarbledPrefix(t *testing.T) {
	a := newTest(t)
	// "CRI80BX" is distance 3 from several codes; the substitution happens
	// anyway and the first minimal match in whitelist order wins.
	got := a.combine([]string{"CRI80BX5144"})
	assert.Equal(t, "CRH380BL5144", got)
}

func TestCorrectLeavesWhitelistedPrefixAlone(t *testing.T) {
	a := newTest(t)
	got := a.combine([]string{"CR400BF5144"})
	assert.Equal(t, "CR400BF5144", got)
}

func TestCorrectTieBreaksOnFirstWhitelistEntry(t *testing.T) {
	a := newTest(t)
	fixed, dist := a.closestWhitelisted("CRH5X")
	// CRH5A and CRH5G are both distance 1; CRH5A is listed first.
	require.Equal(t, 1, dist)
	assert.Equal(t, "CRH5A", fixed)
}

func TestHighSpeedFleetClearsUnprefixedResult(t *testing.T) {
	a := newTest(t) // TrainType 2
	got := a.combine([]string{"1234567"})
	assert.Empty(t, got)
}

func TestMetroFleetKeepsDigitsOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrainType = 0
	a := New(cfg, nil)
	got := a.combine([]string{"05144"})
	assert.Equal(t, "05144", got)
}

func TestShortModelCodesLengthSanity(t *testing.T) {
	a := newTest(t)
	assert.Empty(t, a.combine([]string{"SW12345678901"}), "too long for SW family")
	assert.Empty(t, a.combine([]string{"SY123"}), "too short for SY family")
	assert.Equal(t, "SW123456", a.combine([]string{"SW123456"}))
	assert.Equal(t, "ZY1234567", a.combine([]string{"ZY1234567"}))
}

func TestCombineEmptyInput(t *testing.T) {
	a := newTest(t)
	assert.Empty(t, a.combine(nil))
}
