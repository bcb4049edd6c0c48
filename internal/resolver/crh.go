package resolver

import (
	"log/slog"
	"strconv"
	"strings"
)

// CRHConfig tunes the high-speed fleet resolver.
type CRHConfig struct {
	// PrefixLen is the length of the unit number at the front of each
	// sighted car number.
	PrefixLen int `mapstructure:"prefix_len" yaml:"prefix_len" json:"prefix_len"`
	// MinSightings is how often a unit number must appear before it counts.
	MinSightings int `mapstructure:"min_sightings" yaml:"min_sightings" json:"min_sightings"`
	// LegacySecondUnitCorrection keeps the historical behavior of rewriting
	// the second half of a reconnected pass with the FIRST unit's number.
	// Disable to correct it with the second unit instead.
	LegacySecondUnitCorrection bool `mapstructure:"legacy_second_unit_correction" yaml:"legacy_second_unit_correction" json:"legacy_second_unit_correction"`
}

// DefaultCRHConfig matches the deployed behavior, including the legacy
// second-unit correction quirk.
func DefaultCRHConfig() CRHConfig {
	return CRHConfig{PrefixLen: 4, MinSightings: 4, LegacySecondUnitCorrection: true}
}

// CRH resolves high-speed consists. Car numbers are sighted as pure digit
// entries; model-code entries (those containing "CR") are excluded from
// identification but get rewritten during correction.
type CRH struct {
	cfg CRHConfig
	log *slog.Logger
}

// NewCRH builds a resolver with the given configuration.
func NewCRH(cfg CRHConfig, logger *slog.Logger) *CRH {
	if cfg.PrefixLen <= 0 {
		cfg.PrefixLen = 4
	}
	if cfg.MinSightings <= 0 {
		cfg.MinSightings = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CRH{cfg: cfg, log: logger}
}

// Resolve parses the pass string and identifies units, direction and the
// corrected pass string.
func (c *CRH) Resolve(input string) Result {
	parts := splitNonEmpty(input, '#')

	// Sighted car numbers come from the entries without a model code.
	var numbers []string
	var lastTwo []int
	for _, part := range parts {
		if strings.Contains(part, "CR") {
			continue
		}
		amp := strings.IndexByte(part, '&')
		if amp < 0 {
			continue
		}
		num := trailingDigits(part[amp+1:])
		if num == "" {
			continue
		}
		numbers = append(numbers, num)
		if len(num) >= 2 {
			v, err := strconv.Atoi(num[len(num)-2:])
			if err == nil {
				lastTwo = append(lastTwo, v)
			}
		}
	}

	// Count unit-number prefixes in order of first appearance.
	var uniquePrefixes []string
	counts := make(map[string]int)
	prefixPerNumber := make([]string, 0, len(numbers))
	for _, num := range numbers {
		if len(num) < c.cfg.PrefixLen {
			continue
		}
		prefix := num[:c.cfg.PrefixLen]
		if counts[prefix] == 0 {
			uniquePrefixes = append(uniquePrefixes, prefix)
		}
		counts[prefix]++
		prefixPerNumber = append(prefixPerNumber, prefix)
	}

	var units []string
	for _, p := range uniquePrefixes {
		if counts[p] >= c.cfg.MinSightings {
			units = append(units, p)
		}
	}
	res := Result{
		TrainNumber: strings.Join(units, "|"),
		Reconnected: len(units) > 1,
	}

	if len(lastTwo) < 2 {
		// Not enough ordered sightings; direction defaults to reverse and
		// the pass string is left uncorrected.
		res.Direction = "2"
		return res
	}

	if res.Reconnected {
		res.Direction = c.reconnectedDirection(units, prefixPerNumber, lastTwo)
	} else {
		res.Direction = trendDirection(lastTwo)
	}

	res.Corrected = c.correct(input, parts, units)
	return res
}

// reconnectedDirection judges the travel direction of each unit separately
// and concatenates the digits in unit order.
func (c *CRH) reconnectedDirection(units, prefixPerNumber []string, lastTwo []int) string {
	grouped := make(map[string][]int)
	for i, prefix := range prefixPerNumber {
		if i >= len(lastTwo) {
			break
		}
		for _, u := range units {
			if u == prefix {
				grouped[prefix] = append(grouped[prefix], lastTwo[i])
				break
			}
		}
	}
	var sb strings.Builder
	for _, u := range units {
		vals := grouped[u]
		if len(vals) == 0 {
			sb.WriteByte('2')
			continue
		}
		sb.WriteString(trendDirection(vals))
	}
	return sb.String()
}

// correct rewrites the model-code entries whose digit tail does not match
// the identified unit number.
func (c *CRH) correct(input string, parts, units []string) string {
	if len(units) == 0 {
		return input
	}
	corrected := input
	if len(units) >= 2 && len(parts) >= 2 {
		mid := len(parts) / 2
		corrected = c.correctRange(corrected, parts[:mid], units[0], units[0], false)
		// The replacement unit for the second half historically stayed the
		// first unit; see LegacySecondUnitCorrection.
		replacement := units[0]
		if !c.cfg.LegacySecondUnitCorrection {
			replacement = units[1]
		}
		corrected = c.correctRange(corrected, parts[mid:], units[1], replacement, true)
		return corrected
	}
	return c.correctRange(corrected, parts, units[0], units[0], false)
}

// correctRange fixes the CR-bearing entries of one span. expected is the
// unit that decides whether a tail is abnormal, replacement is what gets
// written in. containsCheck selects substring matching over equality for
// the abnormality test.
func (c *CRH) correctRange(corrected string, parts []string, expected, replacement string, containsCheck bool) string {
	for _, part := range parts {
		if !strings.Contains(part, "CR") {
			continue
		}
		amp := strings.IndexByte(part, '&')
		if amp < 0 {
			continue
		}
		before := part[:amp+1]
		after := part[amp+1:]
		num := trailingDigits(after)
		if num == "" {
			continue
		}
		abnormal := len(num) > c.cfg.PrefixLen
		if containsCheck {
			abnormal = abnormal || !strings.Contains(num, expected)
		} else {
			abnormal = abnormal || num != expected
		}
		if !abnormal {
			continue
		}
		fixed := after[:len(after)-len(num)] + replacement
		corrected = strings.Replace(corrected, "#"+part, "#"+before+fixed, 1)
	}
	return corrected
}
