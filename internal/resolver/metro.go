package resolver

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// MetroConfig tunes the metro fleet resolver.
type MetroConfig struct {
	// CarCount is the fixed number of cars in a metro consist.
	CarCount int `mapstructure:"car_count" yaml:"car_count" json:"car_count"`
}

// DefaultMetroConfig returns the standard six-car consist.
func DefaultMetroConfig() MetroConfig {
	return MetroConfig{CarCount: 6}
}

// Metro resolves metro consists. Every entry is "<carIndex>&<carNumber>";
// the car number is the train number plus a per-car suffix digit.
type Metro struct {
	cfg MetroConfig
	log *slog.Logger
}

// NewMetro builds a resolver with the given configuration.
func NewMetro(cfg MetroConfig, logger *slog.Logger) *Metro {
	if cfg.CarCount <= 0 {
		cfg.CarCount = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Metro{cfg: cfg, log: logger}
}

// Resolve parses the pass string, votes on the base number and direction,
// and regenerates the canonical consist string.
func (m *Metro) Resolve(input string) Result {
	// Car numbers keyed by car index; later sightings of an index win.
	indexed := make(map[int]string)
	for _, part := range splitNonEmpty(input, '#') {
		pair := splitNonEmpty(part, '&')
		if len(pair) != 2 {
			continue
		}
		idx, err := strconv.Atoi(pair[0])
		if err != nil {
			continue
		}
		indexed[idx] = pair[1]
	}
	if len(indexed) == 0 {
		return Result{}
	}

	keys := make([]int, 0, len(indexed))
	for k := range indexed {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	numbers := make([]string, 0, len(keys))
	for _, k := range keys {
		numbers = append(numbers, indexed[k])
	}

	// Direction from the trend of the last digit across car order.
	var lastDigits []int
	for _, num := range numbers {
		if num == "" {
			continue
		}
		lastDigits = append(lastDigits, int(num[len(num)-1]-'0'))
	}
	res := Result{Direction: trendDirection(lastDigits)}

	// The base number (car number minus its suffix digit) seen most often
	// is the train number. Ties go to the first base sighted.
	var bases []string
	counts := make(map[string]int)
	for _, num := range numbers {
		if len(num) < 2 {
			continue
		}
		base := num[:len(num)-1]
		if counts[base] == 0 {
			bases = append(bases, base)
		}
		counts[base]++
	}
	for _, base := range bases {
		if counts[base] > counts[res.TrainNumber] {
			res.TrainNumber = base
		}
	}
	if res.TrainNumber == "" {
		return res
	}

	// Canonical consist: forward numbers the cars 1..N, reverse N..1.
	var sb strings.Builder
	forward := res.Direction == "1"
	for i := 1; i <= m.cfg.CarCount; i++ {
		suffix := i
		if !forward {
			suffix = m.cfg.CarCount - i + 1
		}
		fmt.Fprintf(&sb, "#%d&%s%d", i, res.TrainNumber, suffix)
	}
	res.Corrected = sb.String()
	return res
}
