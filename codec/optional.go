package codec

import (
	"fmt"
	"sync"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// ===== OPTIONAL =====

type optionalCodec[T any] struct {
	elem Codec[T]
}

// Optional gives a field explicit presence: a nil pointer is absent, and a
// non-nil pointer is written even when it points at the default.
func Optional[T any](elem Codec[T]) Codec[*T] {
	return &optionalCodec[T]{elem: elem}
}

func (o *optionalCodec[T]) Kind() schema.Kind { return o.elem.Kind() }

func (o *optionalCodec[T]) Descriptor() schema.FieldDescriptor {
	desc := o.elem.Descriptor()
	desc.Optional = true
	return desc
}

func (o *optionalCodec[T]) Reset(v **T) { *v = nil }

func (o *optionalCodec[T]) IsDefault(v **T) bool { return *v == nil }

func (o *optionalCodec[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v **T) error {
	if *v == nil {
		var zero T
		o.elem.Reset(&zero)
		return o.elem.Encode(w, tag, &zero)
	}
	return o.elem.Encode(w, tag, *v)
}

// target returns the pointee, allocating it at its default when nil
func (o *optionalCodec[T]) target(v **T) *T {
	if *v == nil {
		x := new(T)
		o.elem.Reset(x)
		*v = x
	}
	return *v
}

func (o *optionalCodec[T]) Merge(v **T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	return o.elem.Merge(o.target(v), wt, d, ctx)
}

func (o *optionalCodec[T]) MergeFields(v **T, d *wire.Decoder, ctx wire.DecodeContext) error {
	mc, ok := o.elem.(MessageCodec[T])
	if !ok {
		return fmt.Errorf("codec %T cannot merge fields", o.elem)
	}
	return mc.MergeFields(o.target(v), d, ctx)
}

// ===== LAZY =====

type lazyCodec[T any] struct {
	name    string
	once    sync.Once
	resolve func() Codec[T]
	c       Codec[T]
}

// Lazy defers building a message codec until first use, for message types
// that refer to themselves directly or through other messages. Kind and
// Descriptor answer from name alone, so they are safe to call while the
// message being referenced is still under construction.
func Lazy[T any](name string, resolve func() Codec[T]) Codec[T] {
	return &lazyCodec[T]{name: name, resolve: resolve}
}

func (l *lazyCodec[T]) get() Codec[T] {
	l.once.Do(func() {
		l.c = l.resolve()
		if l.c == nil {
			panic(fmt.Sprintf("lazy codec %s resolved to nil", l.name))
		}
	})
	return l.c
}

func (l *lazyCodec[T]) Kind() schema.Kind { return schema.KindMessage }

func (l *lazyCodec[T]) Descriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{Kind: schema.KindMessage, TypeName: l.name}
}

func (l *lazyCodec[T]) Reset(v *T) { l.get().Reset(v) }

func (l *lazyCodec[T]) IsDefault(v *T) bool { return l.get().IsDefault(v) }

func (l *lazyCodec[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	return l.get().Encode(w, tag, v)
}

func (l *lazyCodec[T]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	return encodeIfSet(l.get(), w, tag, v)
}

func (l *lazyCodec[T]) Merge(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	return l.get().Merge(v, wt, d, ctx)
}

func (l *lazyCodec[T]) MergeFields(v *T, d *wire.Decoder, ctx wire.DecodeContext) error {
	mc, ok := l.get().(MessageCodec[T])
	if !ok {
		return fmt.Errorf("codec %T cannot merge fields", l.get())
	}
	return mc.MergeFields(v, d, ctx)
}
