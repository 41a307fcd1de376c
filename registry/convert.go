package registry

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// kindUnresolved marks a field referring to a message or enum by name
// until the symbol table is complete
const kindUnresolved schema.Kind = ""

const wellKnownPrefix = "google.protobuf."

// convertFile turns a parsed .proto file into its wire-shape description
func convertFile(path string, proto *parser.Proto) (*schema.ProtoFile, error) {
	pf := &schema.ProtoFile{
		Name:   filepath.Base(path),
		Syntax: "proto3",
	}
	if proto.Syntax != nil {
		pf.Syntax = strings.Trim(proto.Syntax.ProtobufVersion, `"'`)
	}
	proto3 := pf.Syntax == "proto3"

	for _, body := range proto.ProtoBody {
		switch b := body.(type) {
		case *parser.Package:
			pf.Package = b.Name
		case *parser.Import:
			pf.Imports = append(pf.Imports, &schema.Import{
				Path:   strings.Trim(b.Location, `"`),
				Public: b.Modifier == parser.ImportModifierPublic,
				Weak:   b.Modifier == parser.ImportModifierWeak,
			})
		case *parser.Message:
			msg, err := convertMessage(b, proto3)
			if err != nil {
				return nil, err
			}
			pf.Messages = append(pf.Messages, msg)
		case *parser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			pf.Enums = append(pf.Enums, enum)
		}
	}
	return pf, nil
}

func convertMessage(m *parser.Message, proto3 bool) (*schema.Message, error) {
	msg := &schema.Message{Name: m.MessageName}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *parser.Field:
			number, err := parseFieldNumber(b.FieldNumber)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.MessageName, b.FieldName, err)
			}
			f := typeDescriptor(b.Type)
			if b.IsRepeated {
				f = &schema.FieldDescriptor{Kind: schema.KindRepeated, Elem: f}
			} else {
				f.Optional = proto3 && b.IsOptional
				f.Default = fieldDefault(b.FieldOptions)
			}
			f.Name = b.FieldName
			f.Number = number
			msg.Fields = append(msg.Fields, f)

		case *parser.MapField:
			number, err := parseFieldNumber(b.FieldNumber)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.MessageName, b.MapName, err)
			}
			key, ok := schema.LookupScalar(b.KeyType)
			if !ok {
				return nil, fmt.Errorf("%s.%s: map key type %s is not a scalar", m.MessageName, b.MapName, b.KeyType)
			}
			msg.Fields = append(msg.Fields, &schema.FieldDescriptor{
				Name:   b.MapName,
				Number: number,
				Kind:   schema.KindMap,
				Key:    key,
				Value:  typeDescriptor(b.Type),
			})

		case *parser.Oneof:
			for _, of := range b.OneofFields {
				number, err := parseFieldNumber(of.FieldNumber)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", m.MessageName, of.FieldName, err)
				}
				f := typeDescriptor(of.Type)
				f.Name = of.FieldName
				f.Number = number
				f.Oneof = b.OneofName
				msg.Fields = append(msg.Fields, f)
			}

		case *parser.Message:
			nested, err := convertMessage(b, proto3)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)

		case *parser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, enum)
		}
	}
	return msg, nil
}

func convertEnum(e *parser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: e.EnumName}
	for _, body := range e.EnumBody {
		switch b := body.(type) {
		case *parser.EnumField:
			n, err := strconv.ParseInt(b.Number, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: invalid enum number %q", e.EnumName, b.Ident, b.Number)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{Name: b.Ident, Number: int32(n)})
		case *parser.Option:
			if b.OptionName == "allow_alias" && b.Constant == "true" {
				enum.AllowAlias = true
			}
		}
	}
	return enum, nil
}

// typeDescriptor describes a scalar type, or leaves a named type unresolved
func typeDescriptor(typeName string) *schema.FieldDescriptor {
	if desc, ok := schema.LookupScalar(typeName); ok {
		return desc
	}
	return &schema.FieldDescriptor{Kind: kindUnresolved, TypeName: typeName}
}

func parseFieldNumber(s string) (wire.FieldNumber, error) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid field number %q", s)
	}
	return wire.FieldNumber(n), nil
}

func fieldDefault(opts []*parser.FieldOption) string {
	for _, opt := range opts {
		if opt.OptionName == "default" {
			return strings.Trim(opt.Constant, `"`)
		}
	}
	return ""
}
