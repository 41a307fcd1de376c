package wire

import "fmt"

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int8

const (
	WireVarint     WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = 1 // fixed64, sfixed64, double
	WireBytes      WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = 3 // deprecated groups, only ever skipped
	WireEndGroup   WireType = 4
	WireFixed32    WireType = 5 // fixed32, sfixed32, float
)

// String returns the protobuf name of the wire type
func (wt WireType) String() string {
	switch wt {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireStartGroup:
		return "start_group"
	case WireEndGroup:
		return "end_group"
	case WireFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wiretype(%d)", int8(wt))
	}
}

// Valid reports whether wt is one of the six wire types defined by protobuf
func (wt WireType) Valid() bool {
	return wt >= WireVarint && wt <= WireFixed32
}

// FieldNumber represents a protobuf field number
type FieldNumber int32

const (
	MinFieldNumber FieldNumber = 1
	MaxFieldNumber FieldNumber = 1<<29 - 1

	// FirstReservedNumber..LastReservedNumber are reserved for the protobuf implementation.
	FirstReservedNumber FieldNumber = 19000
	LastReservedNumber  FieldNumber = 19999
)

// IsValid reports whether n can be used as a field number on the wire
func (n FieldNumber) IsValid() bool {
	return n >= MinFieldNumber && n <= MaxFieldNumber
}

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// TagSize returns the number of bytes the key for fieldNumber occupies
func TagSize(fieldNumber FieldNumber) int {
	return VarintSize(uint64(MakeTag(fieldNumber, WireVarint)))
}
