// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

// Options configures FIFO creation.
type Options struct {
	// Capacity (rounds up to next power of 2)
	capacity int

	// Word width in bits, BuildWord only
	dataWidth int

	// Synchronizer depth, minimum 2
	syncStages int
}

// Builder creates FIFOs with fluent configuration.
//
// Example:
//
//	// Generic FIFO with deeper synchronizers
//	f := afifo.Build[Event](afifo.New(1024).SyncStages(3))
//
//	// 8-bit word FIFO, hardware-scenario shape
//	f := afifo.New(16).DataWidth(8).BuildWord()
type Builder struct {
	opts Options
}

// New creates a FIFO builder with the given capacity.
//
// Capacity rounds up to the next power of 2. For example, capacity=4
// results in actual capacity=4, capacity=1000 results in actual
// capacity=1024.
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("afifo: capacity must be >= 2")
	}
	return &Builder{opts: Options{
		capacity:   capacity,
		dataWidth:  64,
		syncStages: DefaultSyncStages,
	}}
}

// DataWidth sets the word width in bits for [Builder.BuildWord].
// Values narrower than 64 bits are masked on enqueue.
// Ignored by [Build]. Panics if bits is outside [1, 64].
func (b *Builder) DataWidth(bits int) *Builder {
	if bits < 1 || bits > 64 {
		panic("afifo: data width must be in [1, 64]")
	}
	b.opts.dataWidth = bits
	return b
}

// SyncStages sets the depth of both Gray-pointer synchronizers.
//
// Deeper chains raise the pointer relay latency (a remote pointer
// change becomes visible after that many receiving-domain ticks) and
// with it how conservatively full and empty report. Panics if n < 2.
func (b *Builder) SyncStages(n int) *Builder {
	if n < 2 {
		panic("afifo: synchronizer depth must be >= 2")
	}
	b.opts.syncStages = n
	return b
}

// Build creates a generic [FIFO] from the builder configuration.
func Build[T any](b *Builder) *FIFO[T] {
	return newFIFO[T](b.opts.capacity, b.opts.syncStages)
}

// BuildWord creates a fixed-width [WordFIFO] from the builder
// configuration.
func (b *Builder) BuildWord() *WordFIFO {
	return newWordFIFO(b.opts.capacity, b.opts.dataWidth, b.opts.syncStages)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
