// Package protoshadow encodes Go values as protobuf without generated code.
// Message layouts are declared in Go with the codec package; this package
// adds configuration loading, contract checks against .proto files and a
// schema-less inspector.
package protoshadow

import (
	"fmt"

	"github.com/anirudhraja/protoshadow/codec"
	"github.com/anirudhraja/protoshadow/registry"
	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// ===== SCHEMA-AWARE API =====

// Protoshadow pairs a codec configuration with a registry of .proto
// contracts.
type Protoshadow struct {
	registry *registry.Registry
	config   wire.Config
}

// New creates a Protoshadow using the process-wide configuration. dirs are
// the import roots for .proto files.
func New(dirs ...string) *Protoshadow {
	return &Protoshadow{
		registry: registry.NewRegistry(dirs...),
		config:   wire.CurrentConfig(),
	}
}

// WithConfig replaces the configuration used by Marshal and Unmarshal
func (p *Protoshadow) WithConfig(cfg wire.Config) *Protoshadow {
	p.config = cfg.Normalize()
	return p
}

// Config returns the configuration in use
func (p *Protoshadow) Config() wire.Config { return p.config }

// LoadSchema loads a .proto file, or a directory of them, as contracts
func (p *Protoshadow) LoadSchema(path string) error {
	return p.registry.LoadSchema(path)
}

// Marshal encodes v with c under p's configuration
func Marshal[T any](p *Protoshadow, c codec.Codec[T], v *T) ([]byte, error) {
	return codec.Encode(c, v, codec.WithConfig(p.config))
}

// Unmarshal decodes data into dst with c under p's configuration
func Unmarshal[T any](p *Protoshadow, c codec.Codec[T], data []byte, dst *T) error {
	return codec.DecodeInto(c, dst, data, codec.WithConfig(p.config))
}

// Check compares a Go binding against the loaded contract for messageType
func Check[T any](p *Protoshadow, m *codec.MessageType[T], messageType string) ([]schema.Difference, error) {
	contract, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return m.Check(contract), nil
}

// ===== REGISTRY ACCESS =====

func (p *Protoshadow) GetRegistry() *registry.Registry { return p.registry }
func (p *Protoshadow) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Protoshadow) ListEnums() []string             { return p.registry.ListEnums() }
