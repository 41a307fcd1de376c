// protoshadow is a command line companion to the protoshadow codec. It
// dumps protobuf bytes without a schema and checks .proto contracts.
//
// Usage:
//
//	protoshadow inspect [flags] [file|-]
//	protoshadow lint [flags] file.proto...
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/anirudhraja/protoshadow"
	"github.com/anirudhraja/protoshadow/codec"
	"github.com/anirudhraja/protoshadow/wire"
)

// exitError carries a non-zero exit status without an error message
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		var coder *exitError
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return &exitError{code: 2}
	}

	switch args[0] {
	case "inspect":
		return runInspect(args[1:], stdin, stdout, stderr)
	case "lint":
		return runLint(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `protoshadow inspects protobuf bytes and checks .proto contracts.

Usage:
  protoshadow inspect [--format json|yaml|cbor] [--max-depth n] [file|-]
  protoshadow lint [-I dir]... file.proto...

Common flags:
  --config path   TOML file with codec settings
  --verbose       debug logging to stderr
`)
}

// commonFlags are shared by every subcommand
type commonFlags struct {
	configPath string
	verbose    bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "TOML file with codec settings")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads the configuration and installs the logger
func (c *commonFlags) setup() (wire.Config, *zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if c.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return wire.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	codec.SetLogger(logger)

	cfg := wire.CurrentConfig()
	if c.configPath != "" {
		cfg, err = protoshadow.LoadConfig(c.configPath)
		if err != nil {
			return wire.Config{}, nil, err
		}
		logger.Debug("loaded config",
			zap.String("path", c.configPath),
			zap.Int("max_depth", cfg.MaxDepth),
			zap.Bool("disable_recursion_limit", cfg.DisableRecursionLimit),
		)
	}
	return cfg, logger, nil
}
