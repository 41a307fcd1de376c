package codec

import (
	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// ===== STRING =====

type stringCodec struct{}

// String encodes a UTF-8 string as a length-delimited field. Decoding
// validates UTF-8 unless the call disables the check.
func String() Codec[string] { return stringCodec{} }

func (stringCodec) Kind() schema.Kind { return schema.KindString }

func (stringCodec) Descriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{Kind: schema.KindString}
}

func (stringCodec) Reset(v *string) { *v = "" }

func (stringCodec) IsDefault(v *string) bool { return *v == "" }

func (stringCodec) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *string) error {
	w.PutString(*v)
	if tag != 0 {
		w.PutVarint(uint64(len(*v)))
		w.PutTag(tag, wire.WireBytes)
	}
	return nil
}

func (stringCodec) Merge(v *string, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	if err := expectWire(wire.WireBytes, wt); err != nil {
		return err
	}
	s, err := d.ReadString(ctx.ValidateUTF8())
	if err != nil {
		return err
	}
	*v = s
	return nil
}

// ===== BYTES =====

type bytesCodec struct{}

// Bytes encodes a byte slice as a length-delimited field. Decoded slices
// never alias the input.
func Bytes() Codec[[]byte] { return bytesCodec{} }

func (bytesCodec) Kind() schema.Kind { return schema.KindBytes }

func (bytesCodec) Descriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{Kind: schema.KindBytes}
}

func (bytesCodec) Reset(v *[]byte) { *v = nil }

func (bytesCodec) IsDefault(v *[]byte) bool { return len(*v) == 0 }

func (bytesCodec) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *[]byte) error {
	w.PutSlice(*v)
	if tag != 0 {
		w.PutVarint(uint64(len(*v)))
		w.PutTag(tag, wire.WireBytes)
	}
	return nil
}

func (bytesCodec) Merge(v *[]byte, wt wire.WireType, d *wire.Decoder, _ wire.DecodeContext) error {
	if err := expectWire(wire.WireBytes, wt); err != nil {
		return err
	}
	b, err := d.ReadBytes()
	if err != nil {
		return err
	}
	*v = b
	return nil
}
