package wire

import "fmt"

// DecodeContext travels by value through a decode. Nested decodes receive
// the result of Enter; the caller keeps using its own copy.
type DecodeContext struct {
	depth     int
	maxDepth  int
	unlimited bool
	skipUTF8  bool
}

// NewDecodeContext creates a root context from cfg
func NewDecodeContext(cfg Config) DecodeContext {
	cfg = cfg.Normalize()
	return DecodeContext{
		maxDepth:  cfg.MaxDepth,
		unlimited: cfg.DisableRecursionLimit,
		skipUTF8:  cfg.SkipUTF8Check,
	}
}

// Depth returns the current nesting depth (0 for the root message)
func (c DecodeContext) Depth() int { return c.depth }

// ValidateUTF8 reports whether string fields must be valid UTF-8
func (c DecodeContext) ValidateUTF8() bool { return !c.skipUTF8 }

// Enter returns the context for one level of nesting below c
func (c DecodeContext) Enter() (DecodeContext, error) {
	next := c
	next.depth++
	if !c.unlimited && next.depth > c.maxDepth {
		return c, fmt.Errorf("%w: depth %d exceeds %d", ErrRecursionLimit, next.depth, c.maxDepth)
	}
	return next, nil
}
