// Package accumulator collects per-frame number fragments while a train
// passes the camera and fuses them into one reported number per sighting.
package accumulator

import (
	"log/slog"
	"sync"
)

// State of the accumulator.
type State int

const (
	Idle State = iota
	Accumulating
)

// Config tunes the pass state machine. Zero values fall back to defaults.
type Config struct {
	// MaxEmptyFrames is the number of consecutive frames without a fragment
	// that ends the current pass.
	MaxEmptyFrames int `mapstructure:"max_empty_frames" yaml:"max_empty_frames" json:"max_empty_frames"`
	// MinLength is the shortest fragment accepted into a pass.
	MinLength int `mapstructure:"min_length" yaml:"min_length" json:"min_length"`
	// TrainType selects the fleet: 0 metro, 2 high-speed.
	TrainType int `mapstructure:"train_type" yaml:"train_type" json:"train_type"`

	// ValidPrefixes are the model prefixes a combined number may carry.
	ValidPrefixes []string `mapstructure:"valid_prefixes" yaml:"valid_prefixes" json:"valid_prefixes"`
	// Whitelist holds the known model codes used for prefix correction.
	Whitelist []string `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
}

// DefaultConfig returns the fleet configuration used in production.
func DefaultConfig() Config {
	return Config{
		MaxEmptyFrames: 5,
		MinLength:      3,
		TrainType:      2,
		ValidPrefixes:  []string{"CRH", "JC", "SW", "SY", "ZE", "ZY", "CR"},
		Whitelist: []string{
			"CRH5A", "CRH5G", "CRH380BL", "CRH380BG", "CRH380B", "CRH380BJA",
			"CRH380CL", "CR400BF", "CR400BFA", "CR400BFG", "CR400BFB",
			"CR400BFZ", "CR400BFJ", "CR400BFBS", "CR400BFGS", "CR300BF",
			"CRH5J", "CRH5E", "CRH3AA", "CRH3A",
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MaxEmptyFrames <= 0 {
		c.MaxEmptyFrames = def.MaxEmptyFrames
	}
	if c.MinLength <= 0 {
		c.MinLength = def.MinLength
	}
	if len(c.ValidPrefixes) == 0 {
		c.ValidPrefixes = def.ValidPrefixes
	}
	if len(c.Whitelist) == 0 {
		c.Whitelist = def.Whitelist
	}
}

// Accumulator is the per-camera pass state machine. Safe for concurrent use.
type Accumulator struct {
	cfg Config
	log *slog.Logger

	mu           sync.Mutex
	state        State
	fragments    []string
	emptyFrames  int
	lastReported string
}

// New builds an accumulator with the given configuration and logger.
func New(cfg Config, logger *slog.Logger) *Accumulator {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{cfg: cfg, log: logger}
}

// Submit feeds one frame's fragment into the state machine. It returns a
// combined train number and true when a pass just finalized with a
// reportable result.
func (a *Accumulator) Submit(fragment string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if fragment == "" {
		return a.handleEmptyFrame()
	}
	a.handleFragment(fragment)
	return "", false
}

// Flush finalizes the current pass unconditionally, as at the end of the
// camera sequence.
func (a *Accumulator) Flush() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Accumulating {
		return "", false
	}
	return a.finalize()
}

// Reset drops all pass state including the duplicate-suppression memory.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Idle
	a.fragments = nil
	a.emptyFrames = 0
	a.lastReported = ""
}

// State returns the current machine state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Accumulator) handleEmptyFrame() (string, bool) {
	if a.state != Accumulating {
		return "", false
	}
	a.emptyFrames++
	if a.emptyFrames >= a.cfg.MaxEmptyFrames {
		return a.finalize()
	}
	return "", false
}

func (a *Accumulator) handleFragment(fragment string) {
	if a.state == Idle {
		a.state = Accumulating
		a.fragments = a.fragments[:0]
	}
	// Too-short fragments are noise. They neither join the merge set nor
	// keep the pass alive.
	if len(fragment) < a.cfg.MinLength {
		return
	}
	a.emptyFrames = 0
	for _, f := range a.fragments {
		if f == fragment {
			return
		}
	}
	a.fragments = append(a.fragments, fragment)
}

func (a *Accumulator) finalize() (string, bool) {
	combined := a.combine(a.fragments)
	a.log.Debug("pass finalized", "fragments", len(a.fragments), "combined", combined)

	a.state = Idle
	a.fragments = a.fragments[:0]
	a.emptyFrames = 0

	if combined == "" {
		return "", false
	}
	if combined == a.lastReported {
		return "", false
	}
	a.lastReported = combined
	return combined, true
}
