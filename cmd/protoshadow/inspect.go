package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/protoshadow"
)

var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid encoding options: %v", err))
	}
}

func runInspect(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		common   commonFlags
		format   string
		maxDepth int
	)
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	fs.StringVarP(&format, "format", "f", "json", "output format: json, yaml or cbor")
	fs.IntVar(&maxDepth, "max-depth", 0, "deepest nested message to expand (default from config)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, logger, err := common.setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	if maxDepth > 0 {
		cfg.MaxDepth = maxDepth
	}

	data, source, err := readInput(fs.Args(), stdin)
	if err != nil {
		return err
	}
	logger.Debug("inspecting", zap.String("source", source), zap.Int("bytes", len(data)))

	nodes, err := protoshadow.Inspect(data, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	return writeNodes(stdout, format, nodes)
}

func readInput(args []string, stdin io.Reader) ([]byte, string, error) {
	switch {
	case len(args) == 0 || args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", err
		}
		return data, args[0], nil
	default:
		return nil, "", fmt.Errorf("inspect takes one input, got %d", len(args))
	}
}

func writeNodes(w io.Writer, format string, nodes []*protoshadow.Node) error {
	if nodes == nil {
		nodes = []*protoshadow.Node{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nodes); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		return cborMode.NewEncoder(w).Encode(nodes)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
