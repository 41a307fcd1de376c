package codec

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// shadowCodec encodes a domain value S through a wire-facing value Sh
type shadowCodec[S, Sh any] struct {
	target  string
	inner   Codec[Sh]
	fromSun func(*S) (Sh, error)
	toSun   func(*Sh) (S, error)
}

// Shadow maps the domain type S onto a wire representation Sh. Encoding
// builds an Sh from a borrowed *S; decoding fills a fresh Sh for every
// occurrence of the field and converts it, so the last occurrence wins.
// Errors from either direction are reported as conversion errors. The
// declared default of S is toSun applied to the default Sh.
func Shadow[S, Sh any](inner Codec[Sh], fromSun func(*S) (Sh, error), toSun func(*Sh) (S, error)) Codec[S] {
	return &shadowCodec[S, Sh]{
		target:  reflect.TypeOf((*S)(nil)).Elem().String(),
		inner:   inner,
		fromSun: fromSun,
		toSun:   toSun,
	}
}

func (s *shadowCodec[S, Sh]) Kind() schema.Kind { return s.inner.Kind() }

func (s *shadowCodec[S, Sh]) Descriptor() schema.FieldDescriptor { return s.inner.Descriptor() }

func (s *shadowCodec[S, Sh]) Reset(v *S) {
	var sh Sh
	s.inner.Reset(&sh)
	x, err := s.toSun(&sh)
	if err != nil {
		var zero S
		x = zero
	}
	*v = x
}

// IsDefault converts v and asks the wire codec. A value that fails to
// convert is never the default, so Encode gets to report the failure.
func (s *shadowCodec[S, Sh]) IsDefault(v *S) bool {
	sh, err := s.fromSun(v)
	if err != nil {
		return false
	}
	return s.inner.IsDefault(&sh)
}

func (s *shadowCodec[S, Sh]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *S) error {
	sh, err := s.fromSun(v)
	if err != nil {
		return s.fail(err)
	}
	return s.inner.Encode(w, tag, &sh)
}

// encodeIfSet converts v once for both the default check and the encoding
func (s *shadowCodec[S, Sh]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, v *S) error {
	sh, err := s.fromSun(v)
	if err != nil {
		return s.fail(err)
	}
	return encodeIfSet(s.inner, w, tag, &sh)
}

func (s *shadowCodec[S, Sh]) Merge(v *S, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	var sh Sh
	s.inner.Reset(&sh)
	if err := s.inner.Merge(&sh, wt, d, ctx); err != nil {
		return err
	}
	return s.convert(v, &sh)
}

func (s *shadowCodec[S, Sh]) MergeFields(v *S, d *wire.Decoder, ctx wire.DecodeContext) error {
	mc, ok := s.inner.(MessageCodec[Sh])
	if !ok {
		return fmt.Errorf("codec %T cannot merge fields", s.inner)
	}
	var sh Sh
	s.inner.Reset(&sh)
	if err := mc.MergeFields(&sh, d, ctx); err != nil {
		return err
	}
	return s.convert(v, &sh)
}

func (s *shadowCodec[S, Sh]) convert(v *S, sh *Sh) error {
	x, err := s.toSun(sh)
	if err != nil {
		return s.fail(err)
	}
	*v = x
	return nil
}

func (s *shadowCodec[S, Sh]) fail(err error) error {
	if debugEnabled() {
		Logger().Debug("shadow conversion failed", zap.String("target", s.target), zap.Error(err))
	}
	return wire.NewConversionError(s.target, err)
}

// ===== MULTI-TARGET =====

// MultiShadow shares one wire representation between several domain
// types. Every Target produces the same bytes for equivalent values.
type MultiShadow[Sh any] struct {
	inner Codec[Sh]
}

// NewMultiShadow wraps the shared wire codec
func NewMultiShadow[Sh any](inner Codec[Sh]) *MultiShadow[Sh] {
	return &MultiShadow[Sh]{inner: inner}
}

// Wire returns the shared wire codec
func (m *MultiShadow[Sh]) Wire() Codec[Sh] { return m.inner }

// Target binds one more domain type to the shared wire codec
func Target[S, Sh any](m *MultiShadow[Sh], fromSun func(*S) (Sh, error), toSun func(*Sh) (S, error)) Codec[S] {
	return Shadow(m.inner, fromSun, toSun)
}
