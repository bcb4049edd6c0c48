// Package transport carries the trigger and result datagrams between the
// station system and the recognition service.
package transport

import (
	"fmt"
	"regexp"
)

// Trigger is a parsed "{BC}" trigger message announcing that a pass worth
// of frames is ready on disk.
type Trigger struct {
	Timestamp string
	Channel   string
	Payload   string
	Raw       string
}

// Codec parses triggers for one configured camera channel and formats the
// result messages.
type Codec struct {
	channel string
	re      *regexp.Regexp
}

// NewCodec builds a codec for the given channel identifier (e.g. "105-x").
func NewCodec(channel string) (*Codec, error) {
	if channel == "" {
		return nil, fmt.Errorf("channel identifier is empty")
	}
	re, err := regexp.Compile(`^\{BC\}&(\d+)&(` + regexp.QuoteMeta(channel) + `)&(.*)$`)
	if err != nil {
		return nil, fmt.Errorf("building trigger pattern for channel %q: %w", channel, err)
	}
	return &Codec{channel: channel, re: re}, nil
}

// Channel returns the configured channel identifier.
func (c *Codec) Channel() string { return c.channel }

// ParseTrigger validates and decomposes a raw trigger message.
func (c *Codec) ParseTrigger(raw string) (Trigger, error) {
	m := c.re.FindStringSubmatch(raw)
	if m == nil {
		return Trigger{}, fmt.Errorf("message does not match trigger format: %q", raw)
	}
	return Trigger{Timestamp: m[1], Channel: m[2], Payload: m[3], Raw: raw}, nil
}

// FormatResult renders the "{CHJG}" result message for a completed pass.
func FormatResult(timestamp, side, direction, trainNumber string, count int, corrected string) string {
	return fmt.Sprintf("{CHJG}&%s&%s&%s&%s&%d&%s",
		timestamp, side, direction, trainNumber, count, corrected)
}

// FormatEmptyResult renders the result message for a pass without any
// recognized number.
func FormatEmptyResult(timestamp, side string) string {
	return fmt.Sprintf("{CHJG}&%s&%s&0&NULL&0&NULL", timestamp, side)
}
