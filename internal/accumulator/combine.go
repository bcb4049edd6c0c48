package accumulator

import "strings"

// combine fuses the collected fragments into a single candidate number and
// runs the model-prefix sanity pass over it.
func (a *Accumulator) combine(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}

	seedIdx := a.pickSeed(fragments)
	merged := fragments[seedIdx]
	rest := make([]string, 0, len(fragments)-1)
	rest = append(rest, fragments[:seedIdx]...)
	rest = append(rest, fragments[seedIdx+1:]...)

	// Greedily absorb the fragment with the longest overlap, restarting the
	// scan after every merge. Fragments already contained in the merged
	// string are skipped, everything that never overlaps is discarded.
	for {
		bestIdx, bestOverlap, bestForward := -1, 0, true
		for i, f := range rest {
			if strings.Contains(merged, f) {
				continue
			}
			if k := suffixPrefixOverlap(merged, f); k > bestOverlap {
				bestIdx, bestOverlap, bestForward = i, k, true
			}
			if k := suffixPrefixOverlap(f, merged); k > bestOverlap {
				bestIdx, bestOverlap, bestForward = i, k, false
			}
		}
		if bestIdx < 0 {
			break
		}
		f := rest[bestIdx]
		if bestForward {
			merged += f[bestOverlap:]
		} else {
			merged = f[:len(f)-bestOverlap] + merged
		}
		rest = append(rest[:bestIdx], rest[bestIdx+1:]...)
	}

	return a.correct(merged)
}

// pickSeed prefers the longest fragment with a recognized model prefix,
// falling back to the longest fragment overall.
func (a *Accumulator) pickSeed(fragments []string) int {
	best, bestValid := -1, -1
	for i, f := range fragments {
		if best < 0 || len(f) > len(fragments[best]) {
			best = i
		}
		if a.hasValidPrefix(f) && (bestValid < 0 || len(f) > len(fragments[bestValid])) {
			bestValid = i
		}
	}
	if bestValid >= 0 {
		return bestValid
	}
	return best
}

// suffixPrefixOverlap returns the length of the longest suffix of left that
// is also a prefix of right, excluding full containment.
func suffixPrefixOverlap(left, right string) int {
	maxK := min(len(left), len(right)) - 1
	for k := maxK; k > 0; k-- {
		if left[len(left)-k:] == right[:k] {
			return k
		}
	}
	return 0
}

func (a *Accumulator) hasValidPrefix(s string) bool {
	for _, p := range a.cfg.ValidPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// correct repairs the model-code prefix against the whitelist and applies
// the per-fleet sanity checks. An empty return drops the pass result.
func (a *Accumulator) correct(s string) string {
	if s == "" {
		return ""
	}
	prefix, number := SplitPrefixNumber(s)

	// A number from the CR family always gets its model code snapped to the
	// nearest whitelist entry, however badly the OCR garbled it.
	if strings.Contains(s, "CR") && !a.inWhitelist(prefix) {
		if fixed, _ := a.closestWhitelisted(prefix); fixed != "" {
			s = fixed + number
		}
	}

	if a.cfg.TrainType == 2 && !a.hasValidPrefix(s) {
		return ""
	}

	for _, short := range []string{"SW", "SY", "ZE", "ZY"} {
		if strings.HasPrefix(s, short) && (len(s) < 8 || len(s) > 9) {
			return ""
		}
	}
	return s
}

func (a *Accumulator) inWhitelist(prefix string) bool {
	for _, w := range a.cfg.Whitelist {
		if w == prefix {
			return true
		}
	}
	return false
}

// closestWhitelisted returns the whitelist entry with the smallest
// Levenshtein distance to prefix. Ties go to the earliest entry.
func (a *Accumulator) closestWhitelisted(prefix string) (string, int) {
	best := ""
	bestDist := -1
	for _, w := range a.cfg.Whitelist {
		d := Levenshtein(prefix, w)
		if bestDist < 0 || d < bestDist {
			best, bestDist = w, d
		}
	}
	return best, bestDist
}

// SplitPrefixNumber splits a combined number into its model-code prefix and
// the trailing digit run. "CR400BF5144" -> ("CR400BF", "5144").
func SplitPrefixNumber(s string) (string, string) {
	i := len(s) - 1
	for i >= 0 && s[i] >= '0' && s[i] <= '9' {
		i--
	}
	return s[:i+1], s[i+1:]
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
