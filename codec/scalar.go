package codec

import (
	"fmt"
	"math"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// scalar is the shared implementation behind every fixed-width and varint
// codec. Only the put/read pair differs between primitives.
type scalar[T comparable] struct {
	prim   schema.PrimitiveType
	wt     wire.WireType
	put    func(w *wire.ReverseWriter, v T)
	read   func(d *wire.Decoder) (T, error)
	isZero func(v T) bool // nil means v == zero value
}

func (s *scalar[T]) Kind() schema.Kind { return schema.KindPrimitive }

func (s *scalar[T]) Descriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{Kind: schema.KindPrimitive, Primitive: s.prim}
}

func (s *scalar[T]) Reset(v *T) {
	var zero T
	*v = zero
}

func (s *scalar[T]) IsDefault(v *T) bool {
	if s.isZero != nil {
		return s.isZero(*v)
	}
	var zero T
	return *v == zero
}

func (s *scalar[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	s.put(w, *v)
	if tag != 0 {
		w.PutTag(tag, s.wt)
	}
	return nil
}

func (s *scalar[T]) Merge(v *T, wt wire.WireType, d *wire.Decoder, _ wire.DecodeContext) error {
	if err := expectWire(s.wt, wt); err != nil {
		return err
	}
	x, err := s.read(d)
	if err != nil {
		return err
	}
	*v = x
	return nil
}

// ===== VARINT READERS =====

func readInt64(d *wire.Decoder) (int64, error) {
	x, err := d.ReadVarint()
	return int64(x), err
}

// readNarrow reads a sign-extended varint and checks it fits in [lo, hi]
func readNarrow(d *wire.Decoder, prim schema.PrimitiveType, lo, hi int64) (int64, error) {
	x, err := d.ReadVarint()
	if err != nil {
		return 0, err
	}
	n := int64(x)
	if n < lo || n > hi {
		return 0, wire.NewConversionError(string(prim), fmt.Errorf("value %d out of range", n))
	}
	return n, nil
}

func readNarrowUnsigned(d *wire.Decoder, prim schema.PrimitiveType, hi uint64) (uint64, error) {
	x, err := d.ReadVarint()
	if err != nil {
		return 0, err
	}
	if x > hi {
		return 0, wire.NewConversionError(string(prim), fmt.Errorf("value %d out of range", x))
	}
	return x, nil
}

// ===== VARINT CODECS =====

// Bool encodes bool as a varint
func Bool() Codec[bool] { return boolCodec }

// Int32 encodes int32 as a sign-extended varint
func Int32() Codec[int32] { return int32Codec }

// Int64 encodes int64 as a varint
func Int64() Codec[int64] { return int64Codec }

// Uint32 encodes uint32 as a varint
func Uint32() Codec[uint32] { return uint32Codec }

// Uint64 encodes uint64 as a varint
func Uint64() Codec[uint64] { return uint64Codec }

// Sint32 encodes int32 with zigzag encoding
func Sint32() Codec[int32] { return sint32Codec }

// Sint64 encodes int64 with zigzag encoding
func Sint64() Codec[int64] { return sint64Codec }

// Int8 travels as int32 and fails conversion when the decoded value does
// not fit.
func Int8() Codec[int8] { return int8Codec }

// Int16 travels as int32
func Int16() Codec[int16] { return int16Codec }

// Uint8 travels as uint32
func Uint8() Codec[uint8] { return uint8Codec }

// Uint16 travels as uint32
func Uint16() Codec[uint16] { return uint16Codec }

var boolCodec = &scalar[bool]{
	prim: schema.TypeBool,
	wt:   wire.WireVarint,
	put: func(w *wire.ReverseWriter, v bool) {
		if v {
			w.PutU8(1)
		} else {
			w.PutU8(0)
		}
	},
	read: func(d *wire.Decoder) (bool, error) {
		x, err := d.ReadVarint()
		return x != 0, err
	},
}

var int32Codec = &scalar[int32]{
	prim: schema.TypeInt32,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int32) { w.PutVarint(uint64(int64(v))) },
	read: func(d *wire.Decoder) (int32, error) {
		x, err := d.ReadVarint()
		return int32(x), err
	},
}

var int64Codec = &scalar[int64]{
	prim: schema.TypeInt64,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int64) { w.PutVarint(uint64(v)) },
	read: readInt64,
}

var uint32Codec = &scalar[uint32]{
	prim: schema.TypeUint32,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v uint32) { w.PutVarint(uint64(v)) },
	read: func(d *wire.Decoder) (uint32, error) {
		x, err := d.ReadVarint()
		return uint32(x), err
	},
}

var uint64Codec = &scalar[uint64]{
	prim: schema.TypeUint64,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v uint64) { w.PutVarint(v) },
	read: func(d *wire.Decoder) (uint64, error) { return d.ReadVarint() },
}

var sint32Codec = &scalar[int32]{
	prim: schema.TypeSint32,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int32) { w.PutVarint(wire.EncodeZigZag32(v)) },
	read: func(d *wire.Decoder) (int32, error) {
		x, err := d.ReadVarint()
		return wire.DecodeZigZag32(x), err
	},
}

var sint64Codec = &scalar[int64]{
	prim: schema.TypeSint64,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int64) { w.PutVarint(wire.EncodeZigZag64(v)) },
	read: func(d *wire.Decoder) (int64, error) {
		x, err := d.ReadVarint()
		return wire.DecodeZigZag64(x), err
	},
}

var int8Codec = &scalar[int8]{
	prim: schema.TypeInt8,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int8) { w.PutVarint(uint64(int64(v))) },
	read: func(d *wire.Decoder) (int8, error) {
		n, err := readNarrow(d, schema.TypeInt8, math.MinInt8, math.MaxInt8)
		return int8(n), err
	},
}

var int16Codec = &scalar[int16]{
	prim: schema.TypeInt16,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v int16) { w.PutVarint(uint64(int64(v))) },
	read: func(d *wire.Decoder) (int16, error) {
		n, err := readNarrow(d, schema.TypeInt16, math.MinInt16, math.MaxInt16)
		return int16(n), err
	},
}

var uint8Codec = &scalar[uint8]{
	prim: schema.TypeUint8,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v uint8) { w.PutVarint(uint64(v)) },
	read: func(d *wire.Decoder) (uint8, error) {
		n, err := readNarrowUnsigned(d, schema.TypeUint8, math.MaxUint8)
		return uint8(n), err
	},
}

var uint16Codec = &scalar[uint16]{
	prim: schema.TypeUint16,
	wt:   wire.WireVarint,
	put:  func(w *wire.ReverseWriter, v uint16) { w.PutVarint(uint64(v)) },
	read: func(d *wire.Decoder) (uint16, error) {
		n, err := readNarrowUnsigned(d, schema.TypeUint16, math.MaxUint16)
		return uint16(n), err
	},
}

// ===== FIXED-WIDTH CODECS =====

// Fixed32 encodes uint32 as four little-endian bytes
func Fixed32() Codec[uint32] { return fixed32Codec }

// Fixed64 encodes uint64 as eight little-endian bytes
func Fixed64() Codec[uint64] { return fixed64Codec }

// Sfixed32 encodes int32 as four little-endian bytes
func Sfixed32() Codec[int32] { return sfixed32Codec }

// Sfixed64 encodes int64 as eight little-endian bytes
func Sfixed64() Codec[int64] { return sfixed64Codec }

// Float encodes float32. Negative zero is not the default and is written.
func Float() Codec[float32] { return floatCodec }

// Double encodes float64. Negative zero is not the default and is written.
func Double() Codec[float64] { return doubleCodec }

var fixed32Codec = &scalar[uint32]{
	prim: schema.TypeFixed32,
	wt:   wire.WireFixed32,
	put:  func(w *wire.ReverseWriter, v uint32) { w.PutFixed32(v) },
	read: func(d *wire.Decoder) (uint32, error) { return d.ReadFixed32() },
}

var fixed64Codec = &scalar[uint64]{
	prim: schema.TypeFixed64,
	wt:   wire.WireFixed64,
	put:  func(w *wire.ReverseWriter, v uint64) { w.PutFixed64(v) },
	read: func(d *wire.Decoder) (uint64, error) { return d.ReadFixed64() },
}

var sfixed32Codec = &scalar[int32]{
	prim: schema.TypeSfixed32,
	wt:   wire.WireFixed32,
	put:  func(w *wire.ReverseWriter, v int32) { w.PutFixed32(uint32(v)) },
	read: func(d *wire.Decoder) (int32, error) {
		x, err := d.ReadFixed32()
		return int32(x), err
	},
}

var sfixed64Codec = &scalar[int64]{
	prim: schema.TypeSfixed64,
	wt:   wire.WireFixed64,
	put:  func(w *wire.ReverseWriter, v int64) { w.PutFixed64(uint64(v)) },
	read: func(d *wire.Decoder) (int64, error) {
		x, err := d.ReadFixed64()
		return int64(x), err
	},
}

var floatCodec = &scalar[float32]{
	prim:   schema.TypeFloat,
	wt:     wire.WireFixed32,
	put:    func(w *wire.ReverseWriter, v float32) { w.PutFloat32(v) },
	read:   func(d *wire.Decoder) (float32, error) { return d.ReadFloat32() },
	isZero: func(v float32) bool { return math.Float32bits(v) == 0 },
}

var doubleCodec = &scalar[float64]{
	prim:   schema.TypeDouble,
	wt:     wire.WireFixed64,
	put:    func(w *wire.ReverseWriter, v float64) { w.PutFloat64(v) },
	read:   func(d *wire.Decoder) (float64, error) { return d.ReadFloat64() },
	isZero: func(v float64) bool { return math.Float64bits(v) == 0 },
}

// ===== DECLARED DEFAULTS =====

type withDefault[T comparable] struct {
	Codec[T]
	def T
}

// WithDefault makes def the declared default of c: Reset stores it and
// values equal to it are omitted from the encoding.
func WithDefault[T comparable](c Codec[T], def T) Codec[T] {
	return &withDefault[T]{Codec: c, def: def}
}

func (c *withDefault[T]) Reset(v *T) { *v = c.def }

func (c *withDefault[T]) IsDefault(v *T) bool { return *v == c.def }

func (c *withDefault[T]) Descriptor() schema.FieldDescriptor {
	desc := c.Codec.Descriptor()
	desc.Default = fmt.Sprint(c.def)
	return desc
}
