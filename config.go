package protoshadow

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/anirudhraja/protoshadow/wire"
)

type fileConfig struct {
	MaxDepth              int  `toml:"max_depth"`
	DisableRecursionLimit bool `toml:"disable_recursion_limit"`
	SkipUTF8Check         bool `toml:"skip_utf8_check"`
	InitialCapacity       int  `toml:"initial_capacity"`
}

// LoadConfig reads codec settings from a TOML file. Keys missing from the
// file keep their current process-wide values; unknown keys are an error.
func LoadConfig(path string) (wire.Config, error) {
	cfg := wire.CurrentConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return wire.Config{}, fmt.Errorf("load codec config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return wire.Config{}, fmt.Errorf("load codec config: unknown keys %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("max_depth") {
		if raw.MaxDepth <= 0 {
			return wire.Config{}, fmt.Errorf("max_depth must be positive, got %d", raw.MaxDepth)
		}
		cfg.MaxDepth = raw.MaxDepth
	}

	if meta.IsDefined("disable_recursion_limit") {
		cfg.DisableRecursionLimit = raw.DisableRecursionLimit
	}

	if meta.IsDefined("skip_utf8_check") {
		cfg.SkipUTF8Check = raw.SkipUTF8Check
	}

	if meta.IsDefined("initial_capacity") {
		cfg.InitialCapacity = raw.InitialCapacity
	}

	return cfg.Normalize(), nil
}
