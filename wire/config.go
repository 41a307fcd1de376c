package wire

import (
	"os"
	"strconv"
	"sync/atomic"
)

// DefaultMaxDepth is the nesting depth accepted when nothing else is configured
const DefaultMaxDepth = 100

// DefaultCapacity is the initial writer allocation for an encode call
const DefaultCapacity = 128

// Config controls decode limits and encode buffer sizing.
type Config struct {
	// MaxDepth is the deepest submessage nesting accepted on decode. The
	// root message is depth 0.
	MaxDepth int `toml:"max_depth" yaml:"max_depth" json:"max_depth"`

	// DisableRecursionLimit turns the depth check off. Only for inputs
	// that are already trusted.
	DisableRecursionLimit bool `toml:"disable_recursion_limit" yaml:"disable_recursion_limit" json:"disable_recursion_limit"`

	// SkipUTF8Check accepts string fields without validating them.
	SkipUTF8Check bool `toml:"skip_utf8_check" yaml:"skip_utf8_check" json:"skip_utf8_check"`

	// InitialCapacity sizes the reverse writer of each encode call.
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity" json:"initial_capacity"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		MaxDepth:        DefaultMaxDepth,
		InitialCapacity: DefaultCapacity,
	}
}

// Normalize fills zero values with defaults
func (c Config) Normalize() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DefaultCapacity
	}
	return c
}

var config atomic.Pointer[Config]

// CurrentConfig returns the process-wide configuration
func CurrentConfig() Config {
	return *config.Load()
}

// SetConfig sets the process-wide configuration used when a call does not
// supply its own.
func SetConfig(c Config) {
	c = c.Normalize()
	config.Store(&c)
}

func init() {
	c := DefaultConfig()

	// Optional env toggles for test harnesses; defaults remain unchanged if unset.
	if v := os.Getenv("PROTOSHADOW_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxDepth = n
		}
	}
	if v := os.Getenv("PROTOSHADOW_NO_RECURSION_LIMIT"); v == "1" || v == "true" {
		c.DisableRecursionLimit = true
	}
	if v := os.Getenv("PROTOSHADOW_SKIP_UTF8_CHECK"); v == "1" || v == "true" {
		c.SkipUTF8Check = true
	}

	config.Store(&c)
}
