package codec

import (
	"cmp"
	"slices"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

const (
	mapKeyNumber   wire.FieldNumber = 1
	mapValueNumber wire.FieldNumber = 2
)

type mapCodec[K comparable, V any] struct {
	key     Codec[K]
	val     Codec[V]
	compare func(a, b K) int
}

// Map encodes a Go map as repeated key/value entry messages. Entries are
// written in ascending key order so equal maps encode to equal bytes.
func Map[K cmp.Ordered, V any](key Codec[K], val Codec[V]) Codec[map[K]V] {
	return &mapCodec[K, V]{key: key, val: val, compare: cmp.Compare[K]}
}

// MapFunc is Map for key types without a natural order, such as bool
func MapFunc[K comparable, V any](key Codec[K], val Codec[V], compare func(a, b K) int) Codec[map[K]V] {
	return &mapCodec[K, V]{key: key, val: val, compare: compare}
}

// CompareBool orders false before true
func CompareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func (c *mapCodec[K, V]) Kind() schema.Kind { return schema.KindMap }

func (c *mapCodec[K, V]) Descriptor() schema.FieldDescriptor {
	k := c.key.Descriptor()
	v := c.val.Descriptor()
	return schema.FieldDescriptor{Kind: schema.KindMap, Key: &k, Value: &v}
}

func (c *mapCodec[K, V]) Reset(v *map[K]V) { *v = nil }

func (c *mapCodec[K, V]) IsDefault(v *map[K]V) bool { return len(*v) == 0 }

func (c *mapCodec[K, V]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *map[K]V) error {
	m := *v
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, c.compare)

	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		val := m[k]
		mark := w.Mark()
		if err := encodeIfSet(c.val, w, mapValueNumber, &val); err != nil {
			return err
		}
		if err := encodeIfSet(c.key, w, mapKeyNumber, &k); err != nil {
			return err
		}
		if tag != 0 {
			w.PutLength(mark)
			w.PutTag(tag, wire.WireBytes)
		}
	}
	return nil
}

func (c *mapCodec[K, V]) Merge(v *map[K]V, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	if err := expectWire(wire.WireBytes, wt); err != nil {
		return err
	}
	inner, err := ctx.Enter()
	if err != nil {
		return err
	}
	span, err := d.DelimitedSpan()
	if err != nil {
		return err
	}

	var k K
	var val V
	c.key.Reset(&k)
	c.val.Reset(&val)
	for !span.Done() {
		num, ewt, err := span.ReadKey()
		if err != nil {
			return err
		}
		switch num {
		case mapKeyNumber:
			err = c.key.Merge(&k, ewt, span, inner)
		case mapValueNumber:
			err = c.val.Merge(&val, ewt, span, inner)
		default:
			err = span.Skip(num, ewt, inner)
		}
		if err != nil {
			return err
		}
	}

	if *v == nil {
		*v = make(map[K]V)
	}
	(*v)[k] = val
	return nil
}
