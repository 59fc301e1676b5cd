// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

import (
	"math/bits"

	"code.hybscloud.com/atomix"
)

// FIFO is a bounded queue crossed by two independent timing domains.
//
// The write port and the read port each belong to one domain and tick
// at unrelated rates. Each port privately owns its position counter
// (one bit wider than the slot address, so wrapped and unwrapped
// pointers that share address bits stay distinguishable) and publishes
// the Gray encoding of that counter on a wire the opposite port
// samples through a [synchronizer]. Full and empty are derived per
// port by comparing the local Gray pointer against the shadowed remote
// one:
//
//	full  = wgray == shadow(rgray) with the top two bits inverted
//	empty = rgray == shadow(wgray)
//
// The top-two-bit inversion detects the write pointer having lapped
// the shadowed read pointer by exactly one capacity traversal.
//
// The slot array is the only state touched by both domains and needs
// no lock: a port only moves data at addresses the flag gating proves
// the other port is done with, and the release/acquire ordering on the
// Gray wires carries the slot contents across.
//
// Every operation is one tick of its port's domain. There is no
// blocking; a rejected request returns [ErrFull] or [ErrEmpty] and may
// be re-presented on a later tick with no side effect from the
// rejection.
type FIFO[T any] struct {
	slots    []T
	addrMask uint64 // capacity - 1
	ptrMask  uint64 // 2*capacity - 1: counters carry one wrap bit
	wrapMask uint64 // top two Gray bits, inverted by the full compare

	_         pad
	wgrayWire atomix.Uint64 // written by the write port only
	_         pad
	rgrayWire atomix.Uint64 // written by the read port only
	_         pad
	reset     atomix.Bool
	_         pad

	w Writer[T]
	_ pad
	r Reader[T]
}

// NewFIFO creates a FIFO with the default two-stage synchronizers.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewFIFO[T any](capacity int) *FIFO[T] {
	return newFIFO[T](capacity, DefaultSyncStages)
}

func newFIFO[T any](capacity, syncStages int) *FIFO[T] {
	if capacity < 2 {
		panic("afifo: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	addrBits := bits.TrailingZeros64(n)

	f := &FIFO[T]{
		slots:    make([]T, n),
		addrMask: n - 1,
		ptrMask:  n<<1 - 1,
		wrapMask: 3 << (addrBits - 1),
	}
	f.w = Writer[T]{f: f, shadow: newSynchronizer(syncStages)}
	f.r = Reader[T]{f: f, shadow: newSynchronizer(syncStages), empty: true}
	return f
}

// Cap returns the slot capacity.
func (f *FIFO[T]) Cap() int {
	return int(f.addrMask + 1)
}

// Writer returns the write port. It must only be used from the
// producer domain (one goroutine, or one side of a scripted driver).
func (f *FIFO[T]) Writer() *Writer[T] {
	return &f.w
}

// Reader returns the read port. It must only be used from the
// consumer domain.
func (f *FIFO[T]) Reader() *Reader[T] {
	return &f.r
}

// AssertReset raises the reset level. Reset is asynchronous to both
// domains: it takes effect on each port's next tick regardless of
// phase, and the flag accessors report the cleared state immediately.
// While the level is held, both ports stay cleared and reject every
// request.
func (f *FIFO[T]) AssertReset() {
	f.reset.StoreRelease(true)
}

// ReleaseReset lowers the reset level. Both ports resume from the
// agreed-upon zero state: counters zero, empty raised, full lowered.
func (f *FIFO[T]) ReleaseReset() {
	f.reset.StoreRelease(false)
}

// InReset reports whether the reset level is asserted.
func (f *FIFO[T]) InReset() bool {
	return f.reset.LoadAcquire()
}

// Writer is the producer-domain port of a [FIFO].
//
// All fields are owned by the producer domain. The only values leaving
// the domain are the Gray pointer published on the wire and the full
// flag snapshot read through Full.
type Writer[T any] struct {
	f      *FIFO[T]
	bin    uint64 // position counter, addrBits+1 wide
	gray   uint64 // GrayEncode(bin), as published
	shadow synchronizer
	full   bool // registered: decided on the previous tick
}

// Enqueue runs one producer-domain tick carrying a write request.
//
// On acceptance the element is copied into the slot addressed by the
// position counter and the counter advances. Returns [ErrFull] when
// the registered full flag rejects the request; the tick still
// advances the synchronizer, so retrying later makes progress.
func (w *Writer[T]) Enqueue(elem *T) error {
	return w.tick(true, elem)
}

// Idle runs one producer-domain tick with no request. The domain keeps
// ticking even when it has nothing to write so the shadow of the read
// pointer, and with it the full flag, stays current.
func (w *Writer[T]) Idle() {
	w.tick(false, nil)
}

// Full returns the registered full flag. Conservative: it may stay
// raised for up to two producer ticks after the consumer has freed a
// slot, but it is never lowered while the queue truly holds capacity
// items.
func (w *Writer[T]) Full() bool {
	if w.f.reset.LoadAcquire() {
		return false
	}
	return w.full
}

func (w *Writer[T]) tick(req bool, elem *T) error {
	f := w.f
	if f.reset.LoadAcquire() {
		w.bin, w.gray, w.full = 0, 0, false
		w.shadow.clear()
		f.wgrayWire.StoreRelease(0)
		if req {
			// Held in reset: not a full condition, but the request
			// still cannot proceed this tick.
			return ErrWouldBlock
		}
		return nil
	}

	w.shadow.sample(f.rgrayWire.LoadAcquire())

	accepted := req && !w.full
	if accepted {
		f.slots[w.bin&f.addrMask] = *elem
		w.bin = (w.bin + 1) & f.ptrMask
		w.gray = GrayEncode(w.bin)
		// Publish after the slot write: the release pairs with the
		// read port's acquire and carries the slot contents across.
		f.wgrayWire.StoreRelease(w.gray)
	}
	w.full = w.gray == w.shadow.value()^f.wrapMask

	if req && !accepted {
		return ErrFull
	}
	return nil
}

// Reader is the consumer-domain port of a [FIFO].
type Reader[T any] struct {
	f        *FIFO[T]
	bin      uint64
	gray     uint64
	shadow   synchronizer
	empty    bool // registered, raised at reset
	out      T    // output register
	outValid bool
}

// Dequeue runs one consumer-domain tick carrying a read request.
//
// On acceptance the slot addressed by the position counter is returned
// and latched into the output register, and the counter advances.
// Returns [ErrEmpty] (and the zero value) when the registered empty
// flag rejects the request.
func (r *Reader[T]) Dequeue() (T, error) {
	return r.tick(true)
}

// Idle runs one consumer-domain tick with no request, advancing the
// shadow of the write pointer.
func (r *Reader[T]) Idle() {
	r.tick(false)
}

// Empty returns the registered empty flag. Conservative: it may stay
// raised for up to two consumer ticks after the producer has stored an
// item, but it is never lowered while the queue truly holds nothing.
func (r *Reader[T]) Empty() bool {
	if r.f.reset.LoadAcquire() {
		return true
	}
	return r.empty
}

// Output returns the output register and whether it holds a value.
// The register is loaded by an accepted Dequeue and is observable from
// the following consumer tick; it keeps its value across idle and
// rejected ticks.
func (r *Reader[T]) Output() (T, bool) {
	return r.out, r.outValid
}

func (r *Reader[T]) tick(req bool) (T, error) {
	var zero T
	f := r.f
	if f.reset.LoadAcquire() {
		r.bin, r.gray, r.empty = 0, 0, true
		r.out, r.outValid = zero, false
		r.shadow.clear()
		f.rgrayWire.StoreRelease(0)
		if req {
			return zero, ErrWouldBlock
		}
		return zero, nil
	}

	r.shadow.sample(f.wgrayWire.LoadAcquire())

	accepted := req && !r.empty
	var elem T
	if accepted {
		elem = f.slots[r.bin&f.addrMask]
		r.out, r.outValid = elem, true
		r.bin = (r.bin + 1) & f.ptrMask
		r.gray = GrayEncode(r.bin)
		// Publish after the slot read: the release tells the write
		// port this slot is reusable.
		f.rgrayWire.StoreRelease(r.gray)
	}
	r.empty = r.gray == r.shadow.value()

	if req && !accepted {
		return zero, ErrEmpty
	}
	return elem, nil
}
