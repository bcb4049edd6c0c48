package pipeline

import (
	"fmt"
	"strings"
)

// pass collects the numbers reported during one train passage. Each number
// is appended as "#<index>&<number>"; the concatenation is what the fleet
// resolvers parse.
type pass struct {
	count int
	parts strings.Builder
}

func (p *pass) reset() {
	p.count = 0
	p.parts.Reset()
}

func (p *pass) add(number string) {
	p.count++
	fmt.Fprintf(&p.parts, "#%d&%s", p.count, number)
}

func (p *pass) String() string { return p.parts.String() }
