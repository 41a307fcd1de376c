package protoshadow

import (
	"unicode"
	"unicode/utf8"

	"github.com/anirudhraja/protoshadow/wire"
)

// ===== SCHEMA-LESS API =====

// Node is one field occurrence found without a schema
type Node struct {
	Number   wire.FieldNumber `json:"number" yaml:"number" cbor:"number"`
	WireType string           `json:"wire_type" yaml:"wire_type" cbor:"wire_type"`
	Value    any              `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Fields   []*Node          `json:"fields,omitempty" yaml:"fields,omitempty" cbor:"fields,omitempty"`
}

// Inspect walks protobuf bytes without a schema. Varints and fixed-width
// values are reported as unsigned integers. A length-delimited payload is
// shown as text when it is printable UTF-8, and additionally as nested
// fields when it parses as a message, down to cfg.MaxDepth levels.
func Inspect(data []byte, cfg wire.Config) ([]*Node, error) {
	return inspect(wire.NewDecoder(data), wire.NewDecodeContext(cfg), cfg.Normalize().MaxDepth)
}

func inspect(d *wire.Decoder, ctx wire.DecodeContext, maxDepth int) ([]*Node, error) {
	var nodes []*Node
	for !d.Done() {
		num, wt, err := d.ReadKey()
		if err != nil {
			return nil, err
		}
		node := &Node{Number: num, WireType: wt.String()}

		switch wt {
		case wire.WireVarint:
			v, err := d.ReadVarint()
			if err != nil {
				return nil, err
			}
			node.Value = v
		case wire.WireFixed64:
			v, err := d.ReadFixed64()
			if err != nil {
				return nil, err
			}
			node.Value = v
		case wire.WireFixed32:
			v, err := d.ReadFixed32()
			if err != nil {
				return nil, err
			}
			node.Value = v
		case wire.WireBytes:
			raw, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			node.Value = bytesValue(raw)
			node.Fields = nested(raw, ctx, maxDepth)
		default:
			if err := d.Skip(num, wt, ctx); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// nested returns raw's fields if it parses cleanly as a message
func nested(raw []byte, ctx wire.DecodeContext, maxDepth int) []*Node {
	if len(raw) == 0 || ctx.Depth() >= maxDepth {
		return nil
	}
	inner, err := ctx.Enter()
	if err != nil {
		return nil
	}
	fields, err := inspect(wire.NewDecoder(raw), inner, maxDepth)
	if err != nil {
		return nil
	}
	return fields
}

func bytesValue(raw []byte) any {
	if utf8.Valid(raw) && isPrintable(raw) {
		return string(raw)
	}
	return raw
}

func isPrintable(raw []byte) bool {
	for _, r := range string(raw) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
