package codec

import (
	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

type repeatedCodec[T any] struct {
	elem   Codec[T]
	packed bool
	elemWT wire.WireType
}

// Repeated encodes a slice. Numeric, bool and enum elements are packed
// into one length-delimited record; other elements get one key each.
// Decoding appends and accepts both packed and unpacked input for
// packable elements.
func Repeated[T any](elem Codec[T]) Codec[[]T] {
	desc := elem.Descriptor()
	return &repeatedCodec[T]{
		elem:   elem,
		packed: elem.Kind().Packable(),
		elemWT: desc.WireType(),
	}
}

func (r *repeatedCodec[T]) Kind() schema.Kind { return schema.KindRepeated }

func (r *repeatedCodec[T]) Descriptor() schema.FieldDescriptor {
	elem := r.elem.Descriptor()
	return schema.FieldDescriptor{Kind: schema.KindRepeated, Elem: &elem}
}

func (r *repeatedCodec[T]) Reset(v *[]T) { *v = nil }

func (r *repeatedCodec[T]) IsDefault(v *[]T) bool { return len(*v) == 0 }

func (r *repeatedCodec[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *[]T) error {
	s := *v
	if !r.packed {
		for i := len(s) - 1; i >= 0; i-- {
			if err := r.elem.Encode(w, tag, &s[i]); err != nil {
				return err
			}
		}
		return nil
	}

	mark := w.Mark()
	for i := len(s) - 1; i >= 0; i-- {
		if err := r.elem.Encode(w, 0, &s[i]); err != nil {
			return err
		}
	}
	if tag != 0 {
		w.PutLength(mark)
		w.PutTag(tag, wire.WireBytes)
	}
	return nil
}

func (r *repeatedCodec[T]) Merge(v *[]T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	if r.packed && wt == wire.WireBytes {
		span, err := d.DelimitedSpan()
		if err != nil {
			return err
		}
		for !span.Done() {
			var x T
			r.elem.Reset(&x)
			if err := r.elem.Merge(&x, r.elemWT, span, ctx); err != nil {
				return err
			}
			*v = append(*v, x)
		}
		return nil
	}

	var x T
	r.elem.Reset(&x)
	if err := r.elem.Merge(&x, wt, d, ctx); err != nil {
		return err
	}
	*v = append(*v, x)
	return nil
}
