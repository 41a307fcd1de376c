package codec

import (
	"fmt"
	"sort"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// EnumCodec encodes an int32-backed enum as a varint
type EnumCodec[E ~int32] struct {
	name  string
	def   E
	names map[E]string
}

// Enum returns a codec for E whose declared default is def. When names is
// non-empty the enum is closed: decoding a number missing from names fails
// conversion. With no names every number is accepted.
func Enum[E ~int32](def E, names map[E]string) *EnumCodec[E] {
	return &EnumCodec[E]{name: fmt.Sprintf("%T", def), def: def, names: names}
}

// Named sets the enum's type name, as used in descriptors and errors
func (c *EnumCodec[E]) Named(name string) *EnumCodec[E] {
	c.name = name
	return c
}

// Name returns the declared name of v, or its number
func (c *EnumCodec[E]) Name(v E) string {
	if n, ok := c.names[v]; ok {
		return n
	}
	return fmt.Sprint(int32(v))
}

// Schema describes the enum's values in number order
func (c *EnumCodec[E]) Schema() *schema.Enum {
	e := &schema.Enum{Name: c.name}
	for v, n := range c.names {
		e.Values = append(e.Values, &schema.EnumValue{Name: n, Number: int32(v)})
	}
	sort.Slice(e.Values, func(i, j int) bool { return e.Values[i].Number < e.Values[j].Number })
	return e
}

func (c *EnumCodec[E]) Kind() schema.Kind { return schema.KindSimpleEnum }

func (c *EnumCodec[E]) Descriptor() schema.FieldDescriptor {
	desc := schema.FieldDescriptor{Kind: schema.KindSimpleEnum, TypeName: c.name}
	if c.def != 0 {
		desc.Default = c.Name(c.def)
	}
	return desc
}

func (c *EnumCodec[E]) Reset(v *E) { *v = c.def }

func (c *EnumCodec[E]) IsDefault(v *E) bool { return *v == c.def }

func (c *EnumCodec[E]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *E) error {
	w.PutVarint(uint64(int64(*v)))
	if tag != 0 {
		w.PutTag(tag, wire.WireVarint)
	}
	return nil
}

func (c *EnumCodec[E]) Merge(v *E, wt wire.WireType, d *wire.Decoder, _ wire.DecodeContext) error {
	if err := expectWire(wire.WireVarint, wt); err != nil {
		return err
	}
	x, err := d.ReadVarint()
	if err != nil {
		return err
	}
	e := E(int32(x))
	if len(c.names) > 0 {
		if _, ok := c.names[e]; !ok {
			return wire.NewConversionError(c.name, fmt.Errorf("unknown enum value %d", int32(e)))
		}
	}
	*v = e
	return nil
}
