package wire

import (
	"encoding/binary"
	"math"
)

// minGrow is the smallest allocation a writer grows into
const minGrow = 64

// Mark is a writer position captured by ReverseWriter.Mark. It is measured
// from the end of the output, so it survives buffer growth.
type Mark int

// TightBuffer is finished writer output whose first valid byte sits at
// offset 0 of the writer's own allocation.
type TightBuffer []byte

// Bytes returns the encoded bytes
func (t TightBuffer) Bytes() []byte { return []byte(t) }

// ReverseWriter builds protobuf output back to front. Every write lands in
// front of everything written before it, so a field's payload can be
// written first and its length and key afterwards, without measuring the
// payload in advance.
//
// Valid bytes live in buf[pos:]. A writer belongs to one encode call and is
// consumed by Finish or FinishTight.
type ReverseWriter struct {
	buf     []byte
	pos     int
	scratch [MaxVarintLen]byte
}

// NewReverseWriter creates a writer with room for capacity bytes
func NewReverseWriter(capacity int) *ReverseWriter {
	if capacity < 0 {
		capacity = 0
	}
	return &ReverseWriter{
		buf: make([]byte, capacity),
		pos: capacity,
	}
}

// Len returns the number of bytes written so far
func (w *ReverseWriter) Len() int {
	return len(w.buf) - w.pos
}

// Mark captures the current position
func (w *ReverseWriter) Mark() Mark {
	return Mark(w.Len())
}

// WrittenSince returns how many bytes were written after m was taken
func (w *ReverseWriter) WrittenSince(m Mark) int {
	return w.Len() - int(m)
}

// ensure makes room for n more bytes in front of the cursor
func (w *ReverseWriter) ensure(n int) {
	if w.pos >= n {
		return
	}

	used := w.Len()
	newCap := len(w.buf) * 2
	if newCap < minGrow {
		newCap = minGrow
	}
	for newCap < used+n {
		newCap *= 2
	}

	grown := make([]byte, newCap)
	copy(grown[newCap-used:], w.buf[w.pos:])
	w.buf = grown
	w.pos = newCap - used
}

// PutU8 prepends a single byte
func (w *ReverseWriter) PutU8(b byte) {
	w.ensure(1)
	w.pos--
	w.buf[w.pos] = b
}

// PutSlice prepends s, keeping its byte order
func (w *ReverseWriter) PutSlice(s []byte) {
	if len(s) == 0 {
		return
	}
	w.ensure(len(s))
	w.pos -= len(s)
	copy(w.buf[w.pos:], s)
}

// PutString prepends the bytes of s
func (w *ReverseWriter) PutString(s string) {
	if len(s) == 0 {
		return
	}
	w.ensure(len(s))
	w.pos -= len(s)
	copy(w.buf[w.pos:], s)
}

// PutVarint prepends v in standard forward varint byte order
func (w *ReverseWriter) PutVarint(v uint64) {
	if v < 0x80 {
		w.PutU8(byte(v))
		return
	}
	w.PutSlice(AppendVarint(w.scratch[:0], v))
}

// PutFixed32 prepends v as four little-endian bytes
func (w *ReverseWriter) PutFixed32(v uint32) {
	w.ensure(4)
	w.pos -= 4
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
}

// PutFixed64 prepends v as eight little-endian bytes
func (w *ReverseWriter) PutFixed64(v uint64) {
	w.ensure(8)
	w.pos -= 8
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
}

// PutFloat32 prepends v as fixed32
func (w *ReverseWriter) PutFloat32(v float32) {
	w.PutFixed32(math.Float32bits(v))
}

// PutFloat64 prepends v as fixed64
func (w *ReverseWriter) PutFloat64(v float64) {
	w.PutFixed64(math.Float64bits(v))
}

// PutTag prepends the key for a field
func (w *ReverseWriter) PutTag(fieldNumber FieldNumber, wireType WireType) {
	w.PutVarint(uint64(MakeTag(fieldNumber, wireType)))
}

// PutLength prepends the varint length of everything written since m
func (w *ReverseWriter) PutLength(m Mark) {
	w.PutVarint(uint64(w.WrittenSince(m)))
}

// Written returns a view of the bytes written so far. The view is only
// valid until the next write.
func (w *ReverseWriter) Written() []byte {
	return w.buf[w.pos:]
}

// Finish returns the written bytes in place. No bytes are moved, so the
// returned slice usually starts part-way into the writer's allocation.
func (w *ReverseWriter) Finish() []byte {
	out := w.buf[w.pos:]
	w.buf, w.pos = nil, 0
	return out
}

// FinishTight moves the written bytes to the front of the writer's own
// allocation and returns them. No new allocation is made; when the writer
// was sized exactly, nothing is moved at all.
func (w *ReverseWriter) FinishTight() TightBuffer {
	n := w.Len()
	if w.pos != 0 {
		copy(w.buf, w.buf[w.pos:])
	}
	out := w.buf[:n:n]
	w.buf, w.pos = nil, 0
	return TightBuffer(out)
}

// Reset discards written bytes, keeping the allocation for reuse
func (w *ReverseWriter) Reset() {
	w.pos = len(w.buf)
}
