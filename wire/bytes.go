package wire

import (
	"fmt"
	"unicode/utf8"
)

// DECODER METHODS

// ReadBytes decodes a length-delimited byte array. The result is a copy
// and does not share the input buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	raw, err := d.ReadRawBytes()
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(raw))
	copy(data, raw)
	return data, nil
}

// ReadRawBytes decodes bytes without copying (shares buffer)
func (d *Decoder) ReadRawBytes() ([]byte, error) {
	length, err := d.ReadLength()
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytes length: %w", err)
	}

	data := d.buf[d.pos : d.pos+length]
	d.pos += length
	return data, nil
}

// ReadString decodes a length-delimited string, rejecting invalid UTF-8
// when validate is set.
func (d *Decoder) ReadString(validate bool) (string, error) {
	raw, err := d.ReadRawBytes()
	if err != nil {
		return "", err
	}
	if validate && !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// UTILITY FUNCTIONS

// BytesSize returns the size needed to encode the given bytes
func BytesSize(data []byte) int {
	return VarintSize(uint64(len(data))) + len(data)
}

// StringSize returns the size needed to encode the given string
func StringSize(s string) int {
	return VarintSize(uint64(len(s))) + len(s)
}
