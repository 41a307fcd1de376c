package codec

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// denseLimit bounds the field numbers served by the slice lookup table;
// larger numbers fall back to a map.
const denseLimit = 256

// slot is one field number of a message binding. encode leaves out a
// field holding its default.
type slot[T any] struct {
	desc      schema.FieldDescriptor
	isDefault func(v *T) bool
	encode    func(w *wire.ReverseWriter, v *T) error
	merge     func(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error
}

// Field binds one field, or one oneof group, of T to its wire codec
type Field[T any] struct {
	slots []slot[T]
	reset func(v *T)
}

// NewField binds the field number to the value get returns. get must
// return a pointer into its argument.
func NewField[T, F any](number wire.FieldNumber, name string, c Codec[F], get func(*T) *F) Field[T] {
	desc := c.Descriptor()
	desc.Number = number
	desc.Name = name
	return Field[T]{
		slots: []slot[T]{{
			desc:      desc,
			isDefault: func(v *T) bool { return c.IsDefault(get(v)) },
			encode:    func(w *wire.ReverseWriter, v *T) error { return encodeIfSet(c, w, number, get(v)) },
			merge: func(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
				return c.Merge(get(v), wt, d, ctx)
			},
		}},
		reset: func(v *T) { c.Reset(get(v)) },
	}
}

// MessageType is the codec for a message bound field by field to T
type MessageType[T any] struct {
	name     string
	slots    []slot[T] // ascending field number
	resets   []func(v *T)
	dense    []int16 // field number -> slot index + 1
	sparse   map[wire.FieldNumber]int
	validate func(v *T) error
	unknown  func(v *T) *[]byte
}

// NewMessage builds a message codec from its fields. Field numbers must be
// valid and unique.
func NewMessage[T any](name string, fields ...Field[T]) (*MessageType[T], error) {
	m := &MessageType[T]{name: name}
	for _, f := range fields {
		m.slots = append(m.slots, f.slots...)
		if f.reset != nil {
			m.resets = append(m.resets, f.reset)
		}
	}
	sort.SliceStable(m.slots, func(i, j int) bool { return m.slots[i].desc.Number < m.slots[j].desc.Number })

	if err := m.Schema().Validate(); err != nil {
		return nil, fmt.Errorf("message %s: %w", name, err)
	}
	m.buildIndex()
	return m, nil
}

// MustMessage is like NewMessage but panics on an invalid binding
func MustMessage[T any](name string, fields ...Field[T]) *MessageType[T] {
	m, err := NewMessage(name, fields...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *MessageType[T]) buildIndex() {
	for i, s := range m.slots {
		n := s.desc.Number
		if n < denseLimit {
			for len(m.dense) <= int(n) {
				m.dense = append(m.dense, 0)
			}
			m.dense[n] = int16(i + 1)
			continue
		}
		if m.sparse == nil {
			m.sparse = make(map[wire.FieldNumber]int)
		}
		m.sparse[n] = i
	}
}

func (m *MessageType[T]) lookup(n wire.FieldNumber) (*slot[T], bool) {
	if n < denseLimit {
		if int(n) < len(m.dense) && m.dense[n] != 0 {
			return &m.slots[m.dense[n]-1], true
		}
		return nil, false
	}
	i, ok := m.sparse[n]
	if !ok {
		return nil, false
	}
	return &m.slots[i], true
}

// WithValidator runs fn after every decode of the message. A failure is
// reported as a conversion error.
func (m *MessageType[T]) WithValidator(fn func(v *T) error) *MessageType[T] {
	m.validate = fn
	return m
}

// WithUnknownFields keeps the raw bytes of unrecognized fields in the
// slice get returns and writes them back out on encode.
func (m *MessageType[T]) WithUnknownFields(get func(v *T) *[]byte) *MessageType[T] {
	m.unknown = get
	return m
}

// Name returns the message name
func (m *MessageType[T]) Name() string { return m.name }

// Schema describes the binding's wire shape
func (m *MessageType[T]) Schema() *schema.Message {
	msg := &schema.Message{Name: m.name}
	for i := range m.slots {
		desc := m.slots[i].desc
		msg.Fields = append(msg.Fields, &desc)
	}
	return msg
}

// Check compares the binding against a contract loaded from a .proto file
func (m *MessageType[T]) Check(contract *schema.Message) []schema.Difference {
	return schema.Compare(contract, m.Schema())
}

// ===== CODEC =====

func (m *MessageType[T]) Kind() schema.Kind { return schema.KindMessage }

func (m *MessageType[T]) Descriptor() schema.FieldDescriptor {
	return schema.FieldDescriptor{Kind: schema.KindMessage, TypeName: m.name}
}

func (m *MessageType[T]) Reset(v *T) {
	for _, reset := range m.resets {
		reset(v)
	}
	if m.unknown != nil {
		*m.unknown(v) = nil
	}
}

// IsDefault walks every field, nested messages included. Encoding does not
// call it for message fields.
func (m *MessageType[T]) IsDefault(v *T) bool {
	if m.unknown != nil && len(*m.unknown(v)) > 0 {
		return false
	}
	for i := range m.slots {
		if !m.slots[i].isDefault(v) {
			return false
		}
	}
	return true
}

func (m *MessageType[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	mark := w.Mark()
	if err := m.encodeFields(w, v); err != nil {
		return err
	}
	if tag != 0 {
		w.PutLength(mark)
		w.PutTag(tag, wire.WireBytes)
	}
	return nil
}

// encodeIfSet encodes v and drops the key when no field was written. An
// empty payload means every field held its default, so nested messages are
// walked once instead of once per enclosing level.
func (m *MessageType[T]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, v *T) error {
	mark := w.Mark()
	if err := m.encodeFields(w, v); err != nil {
		return err
	}
	if w.WrittenSince(mark) == 0 {
		return nil
	}
	w.PutLength(mark)
	w.PutTag(tag, wire.WireBytes)
	return nil
}

func (m *MessageType[T]) encodeFields(w *wire.ReverseWriter, v *T) error {
	if m.unknown != nil {
		w.PutSlice(*m.unknown(v))
	}
	for i := len(m.slots) - 1; i >= 0; i-- {
		s := &m.slots[i]
		if err := s.encode(w, v); err != nil {
			return wire.WrapField(err, s.desc.Name)
		}
	}
	return nil
}

func (m *MessageType[T]) Merge(v *T, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	if err := expectWire(wire.WireBytes, wt); err != nil {
		return err
	}
	inner, err := ctx.Enter()
	if err != nil {
		if debugEnabled() {
			Logger().Debug("recursion limit exceeded",
				zap.String("message", m.name),
				zap.Int("depth", ctx.Depth()),
			)
		}
		return err
	}
	span, err := d.DelimitedSpan()
	if err != nil {
		return err
	}
	return m.MergeFields(v, span, inner)
}

// MergeFields reads fields until d is exhausted and then runs the validator
func (m *MessageType[T]) MergeFields(v *T, d *wire.Decoder, ctx wire.DecodeContext) error {
	for !d.Done() {
		start := d.Pos()
		num, wt, err := d.ReadKey()
		if err != nil {
			return err
		}

		s, ok := m.lookup(num)
		if !ok {
			if err := d.Skip(num, wt, ctx); err != nil {
				return err
			}
			logUnknown(m.name, num, wt)
			if m.unknown != nil {
				raw := m.unknown(v)
				*raw = append(*raw, d.Since(start)...)
			}
			continue
		}

		if err := s.merge(v, wt, d, ctx); err != nil {
			return wire.WrapField(err, s.desc.Name)
		}
	}

	if m.validate != nil {
		if err := m.validate(v); err != nil {
			if debugEnabled() {
				Logger().Debug("message validation failed", zap.String("message", m.name), zap.Error(err))
			}
			return wire.NewConversionError(m.name, err)
		}
	}
	return nil
}
