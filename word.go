// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

// WordFIFO is a [FIFO] of fixed-width binary words.
//
// Items are uint64 values masked to a configured width of 1..64 bits,
// fixed for the instance lifetime. This is the shape hardware-style
// scenarios run on (an 8-bit data bus is a WordFIFO with width 8);
// use the generic [FIFO] when the items are Go values.
type WordFIFO struct {
	fifo     *FIFO[uint64]
	w        WordWriter
	r        WordReader
	dataMask uint64
	width    int
}

// NewWordFIFO creates a WordFIFO with the default two-stage
// synchronizers. Capacity rounds up to the next power of 2.
// Panics if capacity < 2 or width is outside [1, 64].
func NewWordFIFO(capacity, width int) *WordFIFO {
	return newWordFIFO(capacity, width, DefaultSyncStages)
}

func newWordFIFO(capacity, width, syncStages int) *WordFIFO {
	if width < 1 || width > 64 {
		panic("afifo: data width must be in [1, 64]")
	}
	mask := ^uint64(0)
	if width < 64 {
		mask = 1<<width - 1
	}
	f := &WordFIFO{
		fifo:     newFIFO[uint64](capacity, syncStages),
		dataMask: mask,
		width:    width,
	}
	f.w = WordWriter{w: f.fifo.Writer(), mask: mask}
	f.r = WordReader{r: f.fifo.Reader()}
	return f
}

// Cap returns the slot capacity.
func (f *WordFIFO) Cap() int {
	return f.fifo.Cap()
}

// DataWidth returns the configured word width in bits.
func (f *WordFIFO) DataWidth() int {
	return f.width
}

// Writer returns the producer-domain port.
func (f *WordFIFO) Writer() *WordWriter {
	return &f.w
}

// Reader returns the consumer-domain port.
func (f *WordFIFO) Reader() *WordReader {
	return &f.r
}

// AssertReset raises the reset level. See [FIFO.AssertReset].
func (f *WordFIFO) AssertReset() {
	f.fifo.AssertReset()
}

// ReleaseReset lowers the reset level. See [FIFO.ReleaseReset].
func (f *WordFIFO) ReleaseReset() {
	f.fifo.ReleaseReset()
}

// InReset reports whether the reset level is asserted.
func (f *WordFIFO) InReset() bool {
	return f.fifo.InReset()
}

// WordWriter is the producer-domain port of a [WordFIFO].
type WordWriter struct {
	w    *Writer[uint64]
	mask uint64
}

// Enqueue runs one producer-domain tick carrying a write request.
// The value is truncated to the configured data width before storing.
// Returns [ErrFull] when the full flag rejects the request.
func (w *WordWriter) Enqueue(v uint64) error {
	v &= w.mask
	return w.w.Enqueue(&v)
}

// Idle runs one producer-domain tick with no request.
func (w *WordWriter) Idle() {
	w.w.Idle()
}

// Full returns the registered full flag. See [Writer.Full].
func (w *WordWriter) Full() bool {
	return w.w.Full()
}

// WordReader is the consumer-domain port of a [WordFIFO].
type WordReader struct {
	r *Reader[uint64]
}

// Dequeue runs one consumer-domain tick carrying a read request.
// Returns [ErrEmpty] when the empty flag rejects the request.
func (r *WordReader) Dequeue() (uint64, error) {
	return r.r.Dequeue()
}

// Idle runs one consumer-domain tick with no request.
func (r *WordReader) Idle() {
	r.r.Idle()
}

// Empty returns the registered empty flag. See [Reader.Empty].
func (r *WordReader) Empty() bool {
	return r.r.Empty()
}

// Output returns the output register and whether it holds a value.
// See [Reader.Output].
func (r *WordReader) Output() (uint64, bool) {
	return r.r.Output()
}
