package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DECODER METHODS

// ReadFixed32 decodes a 32-bit fixed-width value
func (d *Decoder) ReadFixed32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, fmt.Errorf("%w: not enough data for fixed32", ErrUnexpectedEOF)
	}

	value := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return value, nil
}

// ReadFixed64 decodes a 64-bit fixed-width value
func (d *Decoder) ReadFixed64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, fmt.Errorf("%w: not enough data for fixed64", ErrUnexpectedEOF)
	}

	value := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return value, nil
}

// ReadFloat32 decodes a 32-bit float from fixed32 data
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadFixed32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 decodes a 64-bit float from fixed64 data
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadFixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// UTILITY FUNCTIONS

// Fixed32Size returns the size of a fixed32 value (always 4 bytes)
func Fixed32Size() int {
	return 4
}

// Fixed64Size returns the size of a fixed64 value (always 8 bytes)
func Fixed64Size() int {
	return 8
}
