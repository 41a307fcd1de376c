package codec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/anirudhraja/protoshadow/schema"
	"github.com/anirudhraja/protoshadow/wire"
)

// Guarded is a value shared between goroutines behind a read-write lock
type Guarded[T any] struct {
	mu sync.RWMutex
	v  T
}

// Load returns a copy of the value
func (g *Guarded[T]) Load() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.v
}

// Store replaces the value
func (g *Guarded[T]) Store(v T) {
	g.mu.Lock()
	g.v = v
	g.mu.Unlock()
}

// Update runs fn with the write lock held
func (g *Guarded[T]) Update(fn func(v *T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.v)
}

type guardedCodec[T any] struct {
	elem Codec[T]
}

// GuardedOf encodes the value inside a Guarded. The lock is only held while
// the value is copied out, never while it is being encoded.
func GuardedOf[T any](elem Codec[T]) Codec[Guarded[T]] {
	return &guardedCodec[T]{elem: elem}
}

func (c *guardedCodec[T]) Kind() schema.Kind { return c.elem.Kind() }

func (c *guardedCodec[T]) Descriptor() schema.FieldDescriptor { return c.elem.Descriptor() }

func (c *guardedCodec[T]) Reset(g *Guarded[T]) {
	g.mu.Lock()
	c.elem.Reset(&g.v)
	g.mu.Unlock()
}

func (c *guardedCodec[T]) IsDefault(g *Guarded[T]) bool {
	v := g.Load()
	return c.elem.IsDefault(&v)
}

func (c *guardedCodec[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, g *Guarded[T]) error {
	v := g.Load()
	return c.elem.Encode(w, tag, &v)
}

// encodeIfSet takes one snapshot for both the default check and the encoding
func (c *guardedCodec[T]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, g *Guarded[T]) error {
	v := g.Load()
	return encodeIfSet(c.elem, w, tag, &v)
}

func (c *guardedCodec[T]) Merge(g *Guarded[T], wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return c.elem.Merge(&g.v, wt, d, ctx)
}

func (c *guardedCodec[T]) MergeFields(g *Guarded[T], d *wire.Decoder, ctx wire.DecodeContext) error {
	mc, ok := c.elem.(MessageCodec[T])
	if !ok {
		return fmt.Errorf("codec %T cannot merge fields", c.elem)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return mc.MergeFields(&g.v, d, ctx)
}

// ===== ATOMIC POINTER =====

type atomicPointerCodec[T any] struct {
	elem Codec[T]
}

// AtomicPointerOf encodes the value an atomic.Pointer currently holds. A nil
// pointer is absent. The pointee is treated as immutable: decoding merges
// into a deep copy and swaps the pointer. The copy is made by encoding the
// current pointee with elem and decoding it again, so it holds what elem
// writes and shares no maps, slices or pointers with the published value.
func AtomicPointerOf[T any](elem Codec[T]) Codec[atomic.Pointer[T]] {
	return &atomicPointerCodec[T]{elem: elem}
}

func (c *atomicPointerCodec[T]) Kind() schema.Kind { return c.elem.Kind() }

func (c *atomicPointerCodec[T]) Descriptor() schema.FieldDescriptor {
	desc := c.elem.Descriptor()
	desc.Optional = true
	return desc
}

func (c *atomicPointerCodec[T]) Reset(p *atomic.Pointer[T]) { p.Store(nil) }

func (c *atomicPointerCodec[T]) IsDefault(p *atomic.Pointer[T]) bool { return p.Load() == nil }

func (c *atomicPointerCodec[T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, p *atomic.Pointer[T]) error {
	v := p.Load()
	if v == nil {
		var zero T
		c.elem.Reset(&zero)
		return c.elem.Encode(w, tag, &zero)
	}
	return c.elem.Encode(w, tag, v)
}

func (c *atomicPointerCodec[T]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, p *atomic.Pointer[T]) error {
	v := p.Load()
	if v == nil {
		return nil
	}
	return c.elem.Encode(w, tag, v)
}

func (c *atomicPointerCodec[T]) Merge(p *atomic.Pointer[T], wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	next, err := c.clone(p.Load())
	if err != nil {
		return err
	}
	if err := c.elem.Merge(next, wt, d, ctx); err != nil {
		return err
	}
	p.Store(next)
	return nil
}

func (c *atomicPointerCodec[T]) MergeFields(p *atomic.Pointer[T], d *wire.Decoder, ctx wire.DecodeContext) error {
	mc, ok := c.elem.(MessageCodec[T])
	if !ok {
		return fmt.Errorf("codec %T cannot merge fields", c.elem)
	}
	next, err := c.clone(p.Load())
	if err != nil {
		return err
	}
	if err := mc.MergeFields(next, d, ctx); err != nil {
		return err
	}
	p.Store(next)
	return nil
}

// clone returns a fresh value equal to cur, or the default when cur is nil
func (c *atomicPointerCodec[T]) clone(cur *T) (*T, error) {
	next := new(T)
	c.elem.Reset(next)
	if cur == nil {
		return next, nil
	}
	w := wire.NewReverseWriter(wire.DefaultCapacity)
	if err := EncodeTo(w, c.elem, cur); err != nil {
		return nil, err
	}
	// the bytes were just produced by elem, so limits are not re-checked
	ctx := wire.NewDecodeContext(wire.Config{DisableRecursionLimit: true, SkipUTF8Check: true})
	if err := mergeRoot(c.elem, next, wire.NewDecoder(w.Finish()), ctx); err != nil {
		return nil, err
	}
	return next, nil
}

// ===== ATOMIC SCALARS =====

type atomicCodec[A any, T comparable] struct {
	elem  Codec[T]
	load  func(a *A) T
	store func(a *A, v T)
}

func (c *atomicCodec[A, T]) Kind() schema.Kind { return c.elem.Kind() }

func (c *atomicCodec[A, T]) Descriptor() schema.FieldDescriptor { return c.elem.Descriptor() }

func (c *atomicCodec[A, T]) Reset(a *A) {
	var v T
	c.elem.Reset(&v)
	c.store(a, v)
}

func (c *atomicCodec[A, T]) IsDefault(a *A) bool {
	v := c.load(a)
	return c.elem.IsDefault(&v)
}

func (c *atomicCodec[A, T]) Encode(w *wire.ReverseWriter, tag wire.FieldNumber, a *A) error {
	v := c.load(a)
	return c.elem.Encode(w, tag, &v)
}

func (c *atomicCodec[A, T]) encodeIfSet(w *wire.ReverseWriter, tag wire.FieldNumber, a *A) error {
	v := c.load(a)
	return encodeIfSet(c.elem, w, tag, &v)
}

func (c *atomicCodec[A, T]) Merge(a *A, wt wire.WireType, d *wire.Decoder, ctx wire.DecodeContext) error {
	v := c.load(a)
	if err := c.elem.Merge(&v, wt, d, ctx); err != nil {
		return err
	}
	c.store(a, v)
	return nil
}

// AtomicInt32 encodes an atomic.Int32 with elem, e.g. Int32() or Sint32()
func AtomicInt32(elem Codec[int32]) Codec[atomic.Int32] {
	return &atomicCodec[atomic.Int32, int32]{
		elem:  elem,
		load:  func(a *atomic.Int32) int32 { return a.Load() },
		store: func(a *atomic.Int32, v int32) { a.Store(v) },
	}
}

// AtomicInt64 encodes an atomic.Int64 with elem
func AtomicInt64(elem Codec[int64]) Codec[atomic.Int64] {
	return &atomicCodec[atomic.Int64, int64]{
		elem:  elem,
		load:  func(a *atomic.Int64) int64 { return a.Load() },
		store: func(a *atomic.Int64, v int64) { a.Store(v) },
	}
}

// AtomicUint32 encodes an atomic.Uint32 with elem
func AtomicUint32(elem Codec[uint32]) Codec[atomic.Uint32] {
	return &atomicCodec[atomic.Uint32, uint32]{
		elem:  elem,
		load:  func(a *atomic.Uint32) uint32 { return a.Load() },
		store: func(a *atomic.Uint32, v uint32) { a.Store(v) },
	}
}

// AtomicUint64 encodes an atomic.Uint64 with elem
func AtomicUint64(elem Codec[uint64]) Codec[atomic.Uint64] {
	return &atomicCodec[atomic.Uint64, uint64]{
		elem:  elem,
		load:  func(a *atomic.Uint64) uint64 { return a.Load() },
		store: func(a *atomic.Uint64, v uint64) { a.Store(v) },
	}
}

// AtomicBool encodes an atomic.Bool
func AtomicBool() Codec[atomic.Bool] {
	return &atomicCodec[atomic.Bool, bool]{
		elem:  Bool(),
		load:  func(a *atomic.Bool) bool { return a.Load() },
		store: func(a *atomic.Bool, v bool) { a.Store(v) },
	}
}
