package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/anirudhraja/protoshadow/registry"
)

func runLint(args []string, stdout, stderr io.Writer) error {
	var (
		common     commonFlags
		protoPaths []string
	)
	fs := pflag.NewFlagSet("lint", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	fs.StringSliceVarP(&protoPaths, "proto-path", "I", nil, "import root (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("lint needs at least one .proto file")
	}

	_, logger, err := common.setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reg := registry.NewRegistry(protoPaths...)
	problems := 0
	for _, file := range fs.Args() {
		if err := reg.LoadFile(file); err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", file, err)
			problems++
			continue
		}
		logger.Debug("loaded proto file", zap.String("file", file))
	}

	files := reg.Files()
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	// Validate covers nested messages, so only top-level ones are visited
	for _, path := range paths {
		for _, msg := range files[path].Messages {
			if err := msg.Validate(); err != nil {
				fmt.Fprintf(stdout, "%s: %v\n", path, err)
				problems++
			}
		}
	}

	messages := reg.ListMessages()
	fmt.Fprintf(stdout, "%d messages, %d enums, %d problems\n", len(messages), len(reg.ListEnums()), problems)
	if problems > 0 {
		return &exitError{code: 1}
	}
	return nil
}
