package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/anirudhraja/protoshadow/wire"
)

// Validate checks that field numbers are usable and unique and that
// repeated and map fields have legal element types.
func (m *Message) Validate() error {
	var errs []error
	seen := make(map[wire.FieldNumber]string, len(m.Fields))

	for _, f := range m.Fields {
		if !f.Number.IsValid() {
			errs = append(errs, fmt.Errorf("%s.%s: field number %d out of range", m.Name, f.Name, f.Number))
		} else if f.Number >= wire.FirstReservedNumber && f.Number <= wire.LastReservedNumber {
			errs = append(errs, fmt.Errorf("%s.%s: field number %d is reserved", m.Name, f.Name, f.Number))
		}
		if prev, ok := seen[f.Number]; ok {
			errs = append(errs, fmt.Errorf("%s: fields %s and %s share number %d", m.Name, prev, f.Name, f.Number))
		}
		seen[f.Number] = f.Name

		if err := f.validateShape(); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", m.Name, f.Name, err))
		}
	}

	for _, nested := range m.NestedTypes {
		if err := nested.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f *FieldDescriptor) validateShape() error {
	switch f.Kind {
	case KindRepeated:
		if f.Elem == nil {
			return fmt.Errorf("repeated field without element type")
		}
		if f.Elem.Kind == KindRepeated || f.Elem.Kind == KindMap {
			return fmt.Errorf("repeated field of %s is not representable", f.Elem.Kind)
		}
		if f.Oneof != "" {
			return fmt.Errorf("repeated field inside oneof %s", f.Oneof)
		}
	case KindMap:
		if f.Key == nil || f.Value == nil {
			return fmt.Errorf("map field without key or value type")
		}
		if !validMapKey(f.Key) {
			return fmt.Errorf("invalid map key kind %s %s", f.Key.Kind, f.Key.Primitive)
		}
		if f.Value.Kind == KindRepeated || f.Value.Kind == KindMap {
			return fmt.Errorf("map value of %s is not representable", f.Value.Kind)
		}
		if f.Oneof != "" {
			return fmt.Errorf("map field inside oneof %s", f.Oneof)
		}
	case KindPrimitive:
		if f.Primitive == "" {
			return fmt.Errorf("primitive field without primitive type")
		}
	}
	return nil
}

func validMapKey(k *FieldDescriptor) bool {
	switch k.Kind {
	case KindString:
		return true
	case KindPrimitive:
		switch k.Primitive {
		case TypeFloat, TypeDouble:
			return false
		}
		return true
	default:
		return false
	}
}

// Difference is one wire-level disagreement between two message shapes
type Difference struct {
	Number wire.FieldNumber
	Field  string
	Reason string
}

func (d Difference) String() string {
	return fmt.Sprintf("field %d (%s): %s", d.Number, d.Field, d.Reason)
}

// Compare lists the wire-level differences between a contract and an
// implementation. Only properties that change bytes on the wire are
// compared; names, and primitives sharing an encoding (int8 and int32,
// string and bytes), are considered equal.
func Compare(want, got *Message) []Difference {
	var diffs []Difference

	for _, wf := range want.Fields {
		gf := got.FieldByNumber(wf.Number)
		if gf == nil {
			diffs = append(diffs, Difference{Number: wf.Number, Field: wf.Name, Reason: "missing"})
			continue
		}
		if reason := compareShape(wf, gf); reason != "" {
			diffs = append(diffs, Difference{Number: wf.Number, Field: wf.Name, Reason: reason})
		}
	}
	for _, gf := range got.Fields {
		if want.FieldByNumber(gf.Number) == nil {
			diffs = append(diffs, Difference{Number: gf.Number, Field: gf.Name, Reason: "not in contract"})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Number < diffs[j].Number })
	return diffs
}

func compareShape(want, got *FieldDescriptor) string {
	if wireClass(want) != wireClass(got) {
		return fmt.Sprintf("expected %s, got %s", describe(want), describe(got))
	}
	switch want.Kind {
	case KindRepeated:
		if want.Packed() != got.Packed() {
			return fmt.Sprintf("packed encoding differs (want %t)", want.Packed())
		}
		return compareShape(want.Elem, got.Elem)
	case KindMap:
		if r := compareShape(want.Key, got.Key); r != "" {
			return "map key: " + r
		}
		if r := compareShape(want.Value, got.Value); r != "" {
			return "map value: " + r
		}
	}
	// message fields always carry presence
	if want.Kind == KindMessage {
		return ""
	}
	if want.Optional != got.Optional && want.Oneof == "" && got.Oneof == "" {
		return fmt.Sprintf("presence differs (want optional=%t)", want.Optional)
	}
	return ""
}

func wireClass(f *FieldDescriptor) string {
	switch f.Kind {
	case KindPrimitive:
		return f.Primitive.Encoding()
	case KindSimpleEnum:
		return string(TypeInt32)
	case KindString, KindBytes:
		return "bytes"
	default:
		return string(f.Kind)
	}
}

func describe(f *FieldDescriptor) string {
	switch f.Kind {
	case KindPrimitive:
		return string(f.Primitive)
	case KindMessage, KindSimpleEnum:
		if f.TypeName != "" {
			return fmt.Sprintf("%s %s", f.Kind, f.TypeName)
		}
	}
	return string(f.Kind)
}
