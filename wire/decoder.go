package wire

import "fmt"

// Decoder is a forward cursor over protobuf bytes
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// Done reports whether the input is exhausted
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

// Remaining returns the number of unread bytes
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Pos returns the read offset
func (d *Decoder) Pos() int {
	return d.pos
}

// Since returns the bytes consumed after offset start
func (d *Decoder) Since(start int) []byte {
	return d.buf[start:d.pos]
}

// ReadVarint reads a varint
func (d *Decoder) ReadVarint() (uint64, error) {
	if d.pos < len(d.buf) && d.buf[d.pos] < 0x80 {
		v := uint64(d.buf[d.pos])
		d.pos++
		return v, nil
	}
	v, n, err := DecodeVarint(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// ReadKey reads a field key. Keys above 32 bits, field number 0 and wire
// types 6 and 7 are rejected.
func (d *Decoder) ReadKey() (FieldNumber, WireType, error) {
	key, err := d.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	if key > 0xFFFFFFFF {
		return 0, 0, fmt.Errorf("%w: key %d exceeds 32 bits", ErrInvalidVarint, key)
	}
	num, wt := ParseTag(Tag(key))
	if num < MinFieldNumber {
		return 0, 0, fmt.Errorf("%w: invalid field number 0", ErrWireTypeMismatch)
	}
	if !wt.Valid() {
		return 0, 0, fmt.Errorf("%w: invalid wire type %d for field %d", ErrWireTypeMismatch, wt, num)
	}
	return num, wt, nil
}

// ReadLength reads a length prefix and checks it against the remaining input
func (d *Decoder) ReadLength() (int, error) {
	n, err := d.ReadVarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		return 0, fmt.Errorf("%w: length %d, %d bytes left", ErrUnexpectedEOF, n, d.Remaining())
	}
	return int(n), nil
}

// Span returns a decoder over the next n bytes and moves past them
func (d *Decoder) Span(n int) (*Decoder, error) {
	if n < 0 || n > d.Remaining() {
		return nil, fmt.Errorf("%w: span of %d, %d bytes left", ErrUnexpectedEOF, n, d.Remaining())
	}
	sub := &Decoder{buf: d.buf[d.pos : d.pos+n]}
	d.pos += n
	return sub, nil
}

// DelimitedSpan reads a length prefix and returns a decoder over the payload
func (d *Decoder) DelimitedSpan() (*Decoder, error) {
	n, err := d.ReadLength()
	if err != nil {
		return nil, err
	}
	return d.Span(n)
}

// Skip consumes the payload of a field whose key has already been read:
// one varint, a fixed width, a length-delimited span, or a whole group.
func (d *Decoder) Skip(fieldNumber FieldNumber, wireType WireType, ctx DecodeContext) error {
	switch wireType {
	case WireVarint:
		_, err := d.ReadVarint()
		return err
	case WireFixed64:
		return d.advance(8)
	case WireFixed32:
		return d.advance(4)
	case WireBytes:
		n, err := d.ReadLength()
		if err != nil {
			return err
		}
		return d.advance(n)
	case WireStartGroup:
		return d.skipGroup(fieldNumber, ctx)
	case WireEndGroup:
		return fmt.Errorf("%w: unexpected end group for field %d", ErrWireTypeMismatch, fieldNumber)
	default:
		return fmt.Errorf("%w: unknown wire type %d", ErrWireTypeMismatch, wireType)
	}
}

// skipGroup skips fields until the end group key matching fieldNumber
func (d *Decoder) skipGroup(fieldNumber FieldNumber, ctx DecodeContext) error {
	inner, err := ctx.Enter()
	if err != nil {
		return err
	}
	for {
		if d.Done() {
			return fmt.Errorf("%w: unterminated group %d", ErrUnexpectedEOF, fieldNumber)
		}
		num, wt, err := d.ReadKey()
		if err != nil {
			return err
		}
		if wt == WireEndGroup {
			if num != fieldNumber {
				return fmt.Errorf("%w: end group %d closes group %d", ErrWireTypeMismatch, num, fieldNumber)
			}
			return nil
		}
		if err := d.Skip(num, wt, inner); err != nil {
			return err
		}
	}
}

func (d *Decoder) advance(n int) error {
	if n > d.Remaining() {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrUnexpectedEOF, n, d.Remaining())
	}
	d.pos += n
	return nil
}
