package schema

import "github.com/anirudhraja/protoshadow/wire"

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []*Import  `json:"imports"`  // imported files
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
}

// Import represents an import statement
type Import struct {
	Path   string `json:"path"`   // "google/protobuf/timestamp.proto"
	Public bool   `json:"public"` // public import
	Weak   bool   `json:"weak"`   // weak import
}

// Message represents the wire shape of a protobuf message
type Message struct {
	Name        string             `json:"name"`         // "Order"
	Fields      []*FieldDescriptor `json:"fields"`       // every field, oneof members included
	NestedTypes []*Message         `json:"nested_types"` // nested messages
	NestedEnums []*Enum            `json:"nested_enums"` // nested enums
	MapEntry    bool               `json:"map_entry"`    // is this a map entry?
}

// FieldByNumber returns the field with the given number, or nil
func (m *Message) FieldByNumber(n wire.FieldNumber) *FieldDescriptor {
	for _, f := range m.Fields {
		if f.Number == n {
			return f
		}
	}
	return nil
}

// Oneofs returns the oneof group names in declaration order
func (m *Message) Oneofs() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, f := range m.Fields {
		if f.Oneof == "" {
			continue
		}
		if _, ok := seen[f.Oneof]; ok {
			continue
		}
		seen[f.Oneof] = struct{}{}
		names = append(names, f.Oneof)
	}
	return names
}

// FieldDescriptor describes one field, or the element of a repeated field
// or map, as it appears on the wire.
type FieldDescriptor struct {
	Name      string           `json:"name,omitempty"`      // "item_ids"
	Number    wire.FieldNumber `json:"number,omitempty"`    // 1; zero for element descriptors
	Kind      Kind             `json:"kind"`                // primitive, enum, bytes, string, message, repeated, map
	Primitive PrimitiveType    `json:"primitive,omitempty"` // for primitive kinds
	TypeName  string           `json:"type_name,omitempty"` // message or enum name
	Elem      *FieldDescriptor `json:"elem,omitempty"`      // for repeated
	Key       *FieldDescriptor `json:"key,omitempty"`       // for map key type
	Value     *FieldDescriptor `json:"value,omitempty"`     // for map value type
	Optional  bool             `json:"optional,omitempty"`  // explicit presence
	Oneof     string           `json:"oneof,omitempty"`     // oneof group name
	Default   string           `json:"default,omitempty"`   // declared default, when not the zero value
}

// WireType returns the wire type a single occurrence of the field uses
func (f *FieldDescriptor) WireType() wire.WireType {
	switch f.Kind {
	case KindPrimitive:
		return f.Primitive.WireType()
	case KindSimpleEnum:
		return wire.WireVarint
	default:
		return wire.WireBytes
	}
}

// Packed reports whether a repeated field uses packed encoding
func (f *FieldDescriptor) Packed() bool {
	return f.Kind == KindRepeated && f.Elem != nil && f.Elem.Kind.Packable()
}

// Kind represents the kind of field type
type Kind string

const (
	KindPrimitive  Kind = "primitive"
	KindSimpleEnum Kind = "enum"
	KindBytes      Kind = "bytes"
	KindString     Kind = "string"
	KindMessage    Kind = "message"
	KindRepeated   Kind = "repeated"
	KindMap        Kind = "map"
)

// Packable reports whether repeated values of this kind are packed
func (k Kind) Packable() bool {
	return k == KindPrimitive || k == KindSimpleEnum
}

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"

	// Narrow integers travel as int32/uint32 and are range checked on decode.
	TypeInt8   PrimitiveType = "int8"
	TypeInt16  PrimitiveType = "int16"
	TypeUint8  PrimitiveType = "uint8"
	TypeUint16 PrimitiveType = "uint16"
)

// WireType returns the wire type of a primitive
func (p PrimitiveType) WireType() wire.WireType {
	switch p {
	case TypeFloat, TypeFixed32, TypeSfixed32:
		return wire.WireFixed32
	case TypeDouble, TypeFixed64, TypeSfixed64:
		return wire.WireFixed64
	default:
		return wire.WireVarint
	}
}

// Encoding groups primitives that are interchangeable on the wire
func (p PrimitiveType) Encoding() string {
	switch p {
	case TypeSint32, TypeSint64:
		return "zigzag"
	case TypeInt8, TypeInt16:
		return string(TypeInt32)
	case TypeUint8, TypeUint16:
		return string(TypeUint32)
	default:
		return string(p)
	}
}

var scalarTypes = map[string]PrimitiveType{
	"double":   TypeDouble,
	"float":    TypeFloat,
	"int64":    TypeInt64,
	"uint64":   TypeUint64,
	"int32":    TypeInt32,
	"fixed64":  TypeFixed64,
	"fixed32":  TypeFixed32,
	"bool":     TypeBool,
	"uint32":   TypeUint32,
	"sfixed32": TypeSfixed32,
	"sfixed64": TypeSfixed64,
	"sint32":   TypeSint32,
	"sint64":   TypeSint64,
}

// LookupScalar maps a .proto scalar type name to a descriptor. string and
// bytes are reported with their own kinds.
func LookupScalar(name string) (*FieldDescriptor, bool) {
	switch name {
	case "string":
		return &FieldDescriptor{Kind: KindString}, true
	case "bytes":
		return &FieldDescriptor{Kind: KindBytes}, true
	}
	p, ok := scalarTypes[name]
	if !ok {
		return nil, false
	}
	return &FieldDescriptor{Kind: KindPrimitive, Primitive: p}, true
}

// Enum represents an enum definition
type Enum struct {
	Name       string       `json:"name"`        // "Status"
	Values     []*EnumValue `json:"values"`      // enum values
	AllowAlias bool         `json:"allow_alias"` // allow_alias option
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "ACTIVE"
	Number int32  `json:"number"` // 1
}
