// Package resolver turns an accumulated pass string, one "#<n>&<number>"
// entry per reported sighting, into the final train identity: unit numbers,
// travel direction and a corrected pass string.
package resolver

// Result is the outcome of resolving one pass.
type Result struct {
	// Direction is "1" for forward, "2" for reverse. Reconnected consists
	// carry one digit per unit.
	Direction string
	// TrainNumber is the unit number, with multiple units joined by "|".
	TrainNumber string
	// Corrected is the pass string with misread entries rewritten.
	Corrected string
	// Reconnected is true when two coupled units were identified.
	Reconnected bool
}

// Resolver is implemented per fleet type.
type Resolver interface {
	Resolve(pass string) Result
}

// splitNonEmpty splits s on sep, skipping empty tokens.
func splitNonEmpty(s string, sep byte) []string {
	var tokens []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == sep {
			if i > start {
				tokens = append(tokens, s[start:i])
			}
			start = i + 1
		}
	}
	return tokens
}

// trailingDigits returns the run of digits at the end of s, or s itself when
// it is all digits.
func trailingDigits(s string) string {
	i := len(s) - 1
	for i >= 0 && s[i] >= '0' && s[i] <= '9' {
		i--
	}
	return s[i+1:]
}

// trendDirection reports "1" when the values mostly increase across the
// sequence and "2" otherwise.
func trendDirection(vals []int) string {
	inc, dec := 0, 0
	for i := 0; i+1 < len(vals); i++ {
		switch {
		case vals[i] < vals[i+1]:
			inc++
		case vals[i] > vals[i+1]:
			dec++
		}
	}
	if inc > dec {
		return "1"
	}
	return "2"
}
