package codec

import (
	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// OneofCase is one member of a oneof group whose Go representation is O,
// usually an interface implemented by one type per case.
type OneofCase[O any] struct {
	desc    schema.FieldDescriptor
	matches func(o O) bool
	encode  func(w *wire.ReverseWriter, o O) error
	merge   func(o *O, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error
}

// Case binds field number to the oneof value V. wrap stores a decoded V in
// the group; unwrap reports whether the group currently holds this case.
// Merging a case that is already set merges into its current value.
func Case[O, V any](number wire.FieldNumber, name string, c Codec[V], wrap func(V) O, unwrap func(O) (V, bool)) OneofCase[O] {
	desc := c.Descriptor()
	desc.Number = number
	desc.Name = name
	return OneofCase[O]{
		desc: desc,
		matches: func(o O) bool {
			_, ok := unwrap(o)
			return ok
		},
		encode: func(w *wire.ReverseWriter, o O) error {
			v, _ := unwrap(o)
			return c.Encode(w, number, &v)
		},
		merge: func(o *O, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
			v, ok := unwrap(*o)
			if !ok {
				c.Reset(&v)
			}
			if err := c.Merge(&v, wt, d, ctx); err != nil {
				return err
			}
			*o = wrap(v)
			return nil
		},
	}
}

// Variant is Case for a V that itself implements the group interface O
func Variant[O, V any](number wire.FieldNumber, name string, c Codec[V]) OneofCase[O] {
	return Case(number, name, c,
		func(v V) O { return any(v).(O) },
		func(o O) (V, bool) {
			v, ok := any(o).(V)
			return v, ok
		},
	)
}

// OneofField binds a oneof group. At most one case is written: the one the
// group holds, even when its value is the default. An empty group writes
// nothing. Decoding any case replaces a different case held before.
func OneofField[T, O any](name string, get func(*T) *O, cases ...OneofCase[O]) Field[T] {
	f := Field[T]{
		reset: func(v *T) {
			var zero O
			*get(v) = zero
		},
	}
	for _, oc := range cases {
		oc := oc
		desc := oc.desc
		desc.Oneof = name
		f.slots = append(f.slots, slot[T]{
			desc: desc,
			isDefault: func(v *T) bool {
				return !oc.matches(*get(v))
			},
			encode: func(w *wire.ReverseWriter, v *T) error {
				o := *get(v)
				if !oc.matches(o) {
					return nil
				}
				return oc.encode(w, o)
			},
			merge: func(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
				return oc.merge(get(v), wt, d, ctx)
			},
		})
	}
	return f
}
