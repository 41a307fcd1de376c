package codec

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// Codec is the per-kind operation table for values of type T. Values are
// passed by pointer and only borrowed for the duration of the call.
type Codec[T any] interface {
	// Kind reports the field kind the codec produces on the wire.
	Kind() schema.Kind
	// Descriptor describes the value's wire shape. Number and Name are unset.
	Descriptor() schema.FieldDescriptor
	// Reset stores the declared default in v.
	Reset(v *T)
	// IsDefault reports whether v equals the declared default. Fields for
	// which it returns true are left out of the encoding.
	IsDefault(v *T) bool
	// Encode prepends v to w. With tag 0 only the payload is written;
	// otherwise the payload is followed (in write order) by its length, for
	// length-delimited kinds, and by the field key.
	Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error
	// Merge reads one occurrence of the field, whose key has already been
	// consumed, into v.
	Merge(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error
}

// MessageCodec is implemented by codecs for message values. MergeFields
// reads fields until d is exhausted, with no length prefix.
type MessageCodec[T any] interface {
	Codec[T]
	MergeFields(v *T, d *wire.Decoder, ctx wire.DecodeContext) error
}

// fieldEncoder is implemented by codecs that decide presence and encode
// from a single read of the value.
type fieldEncoder[T any] interface {
	encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error
}

// encodeIfSet writes v as field tag unless it holds its declared default
func encodeIfSet[T any](c Codec[T], w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	if fe, ok := c.(fieldEncoder[T]); ok {
		return fe.encodeIfSet(w, tag, v)
	}
	if c.IsDefault(v) {
		return nil
	}
	return c.Encode(w, tag, v)
}

// ===== OPTIONS =====

// Option tunes a single Encode or Decode call
type Option func(*options)

type options struct {
	cfg wire.Config
}

// WithConfig replaces the process-wide configuration for the call
func WithConfig(cfg wire.Config) Option {
	return func(o *options) { o.cfg = cfg.Normalize() }
}

// WithMaxDepth sets the deepest accepted submessage nesting
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.cfg.MaxDepth = n
		o.cfg.DisableRecursionLimit = false
	}
}

// WithoutRecursionLimit disables the nesting check for trusted input
func WithoutRecursionLimit() Option {
	return func(o *options) { o.cfg.DisableRecursionLimit = true }
}

// WithoutUTF8Check accepts string fields without validating them
func WithoutUTF8Check() Option {
	return func(o *options) { o.cfg.SkipUTF8Check = true }
}

// WithCapacity sets the writer's initial allocation
func WithCapacity(n int) Option {
	return func(o *options) { o.cfg.InitialCapacity = n }
}

func buildOptions(opts []Option) options {
	o := options{cfg: wire.CurrentConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg = o.cfg.Normalize()
	return o
}

// ===== ENCODE =====

// Encode encodes v. Message values are written bare; any other root value
// is written as field 1 of an implicit message. A value equal to its
// declared default encodes to zero bytes.
func Encode[T any](c Codec[T], v *T, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	w := wire.NewReverseWriter(o.cfg.InitialCapacity)
	if err := EncodeTo(w, c, v); err != nil {
		return nil, err
	}
	return w.FinishTight().Bytes(), nil
}

// EncodeTo prepends the encoding of v to w. Callers reusing a writer across
// calls must Reset it in between.
func EncodeTo[T any](w *wire.ReverseWriter, c Codec[T], v *T) error {
	if c.Kind() == schema.KindMessage {
		return c.Encode(w, 0, v)
	}
	return encodeIfSet(c, w, 1, v)
}

// Archived is an encoded value that has not been copied out of its writer
type Archived struct {
	buf []byte
}

// Archive encodes v and keeps the bytes where the writer produced them,
// for callers that need the size before copying the result elsewhere.
func Archive[T any](c Codec[T], v *T, opts ...Option) (*Archived, error) {
	o := buildOptions(opts)
	w := wire.NewReverseWriter(o.cfg.InitialCapacity)
	if err := EncodeTo(w, c, v); err != nil {
		return nil, err
	}
	return &Archived{buf: w.Finish()}, nil
}

// Len returns the encoded size
func (a *Archived) Len() int { return len(a.buf) }

// Bytes returns the encoded bytes without copying
func (a *Archived) Bytes() []byte { return a.buf }

// AppendTo appends the encoded bytes to dst
func (a *Archived) AppendTo(dst []byte) []byte { return append(dst, a.buf...) }

// WriteTo writes the encoded bytes to w
func (a *Archived) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.buf)
	return int64(n), err
}

// ===== DECODE =====

// Decode decodes data into a new value. On error the zero T is returned.
func Decode[T any](c Codec[T], data []byte, opts ...Option) (T, error) {
	var v T
	if err := DecodeInto(c, &v, data, opts...); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeInto resets dst to its declared defaults and decodes data into it.
// On error dst is reset again, so no partially decoded value is left behind.
func DecodeInto[T any](c Codec[T], dst *T, data []byte, opts ...Option) error {
	c.Reset(dst)
	if err := MergeFrom(c, dst, data, opts...); err != nil {
		c.Reset(dst)
		return err
	}
	return nil
}

// MergeFrom decodes data on top of dst with protobuf merge semantics:
// scalars are overwritten, repeated fields appended, messages merged.
// On error dst is left partially merged and should be discarded or reset.
func MergeFrom[T any](c Codec[T], dst *T, data []byte, opts ...Option) error {
	o := buildOptions(opts)
	return mergeRoot(c, dst, wire.NewDecoder(data), wire.NewDecodeContext(o.cfg))
}

// mergeRoot reads a root value written by EncodeTo
func mergeRoot[T any](c Codec[T], dst *T, d *wire.Decoder, ctx wire.DecodeContext) error {
	if c.Kind() == schema.KindMessage {
		mc, ok := c.(MessageCodec[T])
		if !ok {
			return fmt.Errorf("codec %T reports a message kind but cannot merge fields", c)
		}
		return mc.MergeFields(dst, d, ctx)
	}
	return mergeWrapped(c, dst, d, ctx)
}

// mergeWrapped reads a non-message root stored as field 1
func mergeWrapped[T any](c Codec[T], dst *T, d *wire.Decoder, ctx wire.DecodeContext) error {
	for !d.Done() {
		num, wt, err := d.ReadKey()
		if err != nil {
			return err
		}
		if num != 1 {
			if err := d.Skip(num, wt, ctx); err != nil {
				return err
			}
			logUnknown("root", num, wt)
			continue
		}
		if err := c.Merge(dst, wt, d, ctx); err != nil {
			return err
		}
	}
	return nil
}

func logUnknown(message string, num wire.FieldNumber, wt wire.WireType) {
	if debugEnabled() {
		Logger().Debug("skipped unknown field",
			zap.String("message", message),
			zap.Int32("number", int32(num)),
			zap.Stringer("wire_type", wt),
		)
	}
}

// expectWire returns a mismatch error unless got equals want
func expectWire(want, got wire.WireType) error {
	if want != got {
		return wire.MismatchError(want, got)
	}
	return nil
}
