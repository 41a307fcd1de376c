package wire

import (
	"errors"
	"testing"
)

func TestDecoder_ReadKey(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		number  FieldNumber
		wt      WireType
		wantErr error
	}{
		{"field_1_varint", []byte{0x08}, 1, WireVarint, nil},
		{"field_2_bytes", []byte{0x12}, 2, WireBytes, nil},
		{"field_16_fixed32", []byte{0x85, 0x01}, 16, WireFixed32, nil},
		{"field_zero", []byte{0x00}, 0, 0, ErrWireTypeMismatch},
		{"wire_type_6", []byte{0x0e}, 0, 0, ErrWireTypeMismatch},
		{"wire_type_7", []byte{0x0f}, 0, 0, ErrWireTypeMismatch},
		{"key_over_32_bits", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, 0, 0, ErrInvalidVarint},
		{"truncated", []byte{0x80}, 0, 0, ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, wt, err := NewDecoder(tt.data).ReadKey()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadKey failed: %v", err)
			}
			if num != tt.number || wt != tt.wt {
				t.Errorf("got (%d, %s), want (%d, %s)", num, wt, tt.number, tt.wt)
			}
		})
	}
}

func TestDecoder_Skip(t *testing.T) {
	ctx := NewDecodeContext(DefaultConfig())

	tests := []struct {
		name    string
		data    []byte // everything after the key
		wt      WireType
		rest    int
		wantErr error
	}{
		{"varint", []byte{0x96, 0x01, 0xff}, WireVarint, 1, nil},
		{"fixed64", []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xff}, WireFixed64, 1, nil},
		{"fixed32", []byte{1, 2, 3, 4}, WireFixed32, 0, nil},
		{"bytes", []byte{0x02, 'h', 'i', 0xff}, WireBytes, 1, nil},
		// group 5 holding field 1 varint 7, then end group 5
		{"group", []byte{0x08, 0x07, 0x2c, 0xff}, WireStartGroup, 1, nil},
		{"nested_group", []byte{0x33, 0x08, 0x01, 0x34, 0x2c}, WireStartGroup, 0, nil},
		{"bytes_past_end", []byte{0x05, 'h', 'i'}, WireBytes, 0, ErrUnexpectedEOF},
		{"fixed64_short", []byte{1, 2, 3}, WireFixed64, 0, ErrUnexpectedEOF},
		{"unterminated_group", []byte{0x08, 0x07}, WireStartGroup, 0, ErrUnexpectedEOF},
		{"wrong_end_group", []byte{0x34}, WireStartGroup, 0, ErrWireTypeMismatch},
		{"stray_end_group", nil, WireEndGroup, 0, ErrWireTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.data)
			err := d.Skip(5, tt.wt, ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Skip failed: %v", err)
			}
			if d.Remaining() != tt.rest {
				t.Errorf("expected %d bytes left, got %d", tt.rest, d.Remaining())
			}
		})
	}
}

func TestDecoder_SkipGroupRespectsDepth(t *testing.T) {
	ctx := NewDecodeContext(Config{MaxDepth: 2})

	// the outer start key has already been read: one inner group, then both ends
	d := NewDecoder([]byte{0x0b, 0x0c, 0x0c})
	if err := d.Skip(1, WireStartGroup, ctx); err != nil {
		t.Fatalf("two levels should be accepted: %v", err)
	}

	d = NewDecoder([]byte{0x0b, 0x0b, 0x0c, 0x0c, 0x0c})
	if err := d.Skip(1, WireStartGroup, ctx); !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected recursion limit, got %v", err)
	}
}

func TestDecoder_Spans(t *testing.T) {
	d := NewDecoder([]byte{0x03, 'a', 'b', 'c', 0x01})

	span, err := d.DelimitedSpan()
	if err != nil {
		t.Fatalf("DelimitedSpan failed: %v", err)
	}
	if span.Remaining() != 3 {
		t.Errorf("span should hold 3 bytes, has %d", span.Remaining())
	}
	if d.Remaining() != 1 {
		t.Errorf("parent should have moved past the span, %d left", d.Remaining())
	}

	if _, err := d.Span(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected EOF for oversized span, got %v", err)
	}
}

func TestDecoder_ReadString(t *testing.T) {
	valid := []byte{0x02, 'o', 'k'}
	s, err := NewDecoder(valid).ReadString(true)
	if err != nil || s != "ok" {
		t.Fatalf("expected ok, got %q (%v)", s, err)
	}

	invalid := []byte{0x02, 0xc3, 0x28}
	if _, err := NewDecoder(invalid).ReadString(true); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected invalid UTF-8, got %v", err)
	}
	if _, err := NewDecoder(invalid).ReadString(false); err != nil {
		t.Errorf("unvalidated read should succeed, got %v", err)
	}
}

func TestDecoder_ReadBytesCopies(t *testing.T) {
	data := []byte{0x02, 'x', 'y'}
	b, err := NewDecoder(data).ReadBytes()
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	data[1] = 'z'
	if string(b) != "xy" {
		t.Errorf("ReadBytes result aliases its input: %q", b)
	}
}

func TestDecodeContext_Enter(t *testing.T) {
	ctx := NewDecodeContext(Config{MaxDepth: 2})

	one, err := ctx.Enter()
	if err != nil || one.Depth() != 1 {
		t.Fatalf("first level: depth %d, err %v", one.Depth(), err)
	}
	two, err := one.Enter()
	if err != nil || two.Depth() != 2 {
		t.Fatalf("second level: depth %d, err %v", two.Depth(), err)
	}
	if _, err := two.Enter(); !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected recursion limit, got %v", err)
	}
	if ctx.Depth() != 0 {
		t.Errorf("Enter must not modify the caller's context")
	}

	unlimited := NewDecodeContext(Config{MaxDepth: 1, DisableRecursionLimit: true})
	for i := 0; i < 10; i++ {
		if unlimited, err = unlimited.Enter(); err != nil {
			t.Fatalf("unlimited context failed at depth %d: %v", i, err)
		}
	}
}
