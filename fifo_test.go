// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/afifo"
)

// =============================================================================
// Queue Core - Basic Operations
// =============================================================================

// TestFIFOBasic fills the queue from the producer port, drains it from
// the consumer port, and checks the accept/reject contract at both
// boundaries. Single-stepped: both domains are ticked by the test.
func TestFIFOBasic(t *testing.T) {
	f := afifo.NewFIFO[int](3)
	w, r := f.Writer(), f.Reader()

	if f.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", f.Cap())
	}
	if !r.Empty() {
		t.Fatal("Empty at construction: got false, want true")
	}
	if w.Full() {
		t.Fatal("Full at construction: got true, want false")
	}

	// Enqueue to capacity. The read pointer shadow is zero, so no
	// consumer ticks are needed for the writes to be accepted.
	for i := range 4 {
		v := i + 100
		if err := w.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if !w.Full() {
		t.Fatal("Full after filling: got false, want true")
	}

	// Full queue rejects, retryably.
	v := 999
	if err := w.Enqueue(&v); !errors.Is(err, afifo.ErrFull) {
		t.Fatalf("Enqueue on full: got %v, want ErrFull", err)
	}
	if !afifo.IsWouldBlock(w.Enqueue(&v)) {
		t.Fatal("Enqueue on full: IsWouldBlock = false, want true")
	}

	// The write pointer needs two consumer ticks to cross the
	// synchronizer before empty drops.
	if !r.Empty() {
		t.Fatal("Empty before propagation: got false, want true")
	}
	r.Idle()
	r.Idle()
	if r.Empty() {
		t.Fatal("Empty after propagation: got true, want false")
	}

	// Dequeue in FIFO order.
	for i := range 4 {
		val, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}
	if !r.Empty() {
		t.Fatal("Empty after draining: got false, want true")
	}

	// Empty queue rejects, retryably.
	if _, err := r.Dequeue(); !errors.Is(err, afifo.ErrEmpty) {
		t.Fatalf("Dequeue on empty: got %v, want ErrEmpty", err)
	}

	// The freed slots need two producer ticks to reach the write
	// port's shadow before full drops.
	w.Idle()
	w.Idle()
	if w.Full() {
		t.Fatal("Full after drain propagation: got true, want false")
	}
}

// TestRejectedRequestRetryable verifies a rejected request leaves no
// trace: the same items come out, in order, once room appears.
func TestRejectedRequestRetryable(t *testing.T) {
	f := afifo.NewWordFIFO(2, 8)
	w, r := f.Writer(), f.Reader()

	for i := range 2 {
		if err := w.Enqueue(uint64(10 + i)); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	// Reject the same request a few times.
	for range 3 {
		if err := w.Enqueue(12); !errors.Is(err, afifo.ErrFull) {
			t.Fatalf("Enqueue on full: got %v, want ErrFull", err)
		}
	}

	// Free one slot and let it propagate back to the write port.
	r.Idle()
	r.Idle()
	if v, err := r.Dequeue(); err != nil || v != 10 {
		t.Fatalf("Dequeue: got (%d, %v), want (10, nil)", v, err)
	}
	w.Idle()
	w.Idle()

	// The retried request now lands.
	if err := w.Enqueue(12); err != nil {
		t.Fatalf("retried Enqueue: %v", err)
	}

	want := []uint64{11, 12}
	for i, wv := range want {
		r.Idle()
		r.Idle()
		v, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if v != wv {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, wv)
		}
	}
}

// TestOutputRegister checks the registered read-data timing: loaded by
// an accepted Dequeue, held across idle and rejected ticks.
func TestOutputRegister(t *testing.T) {
	f := afifo.NewWordFIFO(4, 8)
	w, r := f.Writer(), f.Reader()

	if _, ok := r.Output(); ok {
		t.Fatal("Output at construction: valid, want invalid")
	}

	if err := w.Enqueue(0x5a); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	r.Idle()
	r.Idle()

	if _, err := r.Dequeue(); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if v, ok := r.Output(); !ok || v != 0x5a {
		t.Fatalf("Output after accept: got (%#x, %v), want (0x5a, true)", v, ok)
	}

	// Holds across idle and rejected ticks.
	r.Idle()
	if _, err := r.Dequeue(); !errors.Is(err, afifo.ErrEmpty) {
		t.Fatalf("Dequeue on empty: got %v, want ErrEmpty", err)
	}
	if v, ok := r.Output(); !ok || v != 0x5a {
		t.Fatalf("Output after idle ticks: got (%#x, %v), want (0x5a, true)", v, ok)
	}
}

// =============================================================================
// Pointer Relay Timing
// =============================================================================

// TestEmptyDelayBound pins the consumer-side visibility latency: a
// write becomes visible after exactly two consumer ticks with the
// default synchronizer depth.
func TestEmptyDelayBound(t *testing.T) {
	f := afifo.NewWordFIFO(4, 8)
	w, r := f.Writer(), f.Reader()

	if err := w.Enqueue(1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	r.Idle()
	if !r.Empty() {
		t.Fatal("Empty after one consumer tick: got false, want true")
	}
	r.Idle()
	if r.Empty() {
		t.Fatal("Empty after two consumer ticks: got true, want false")
	}
}

// TestFullDelayBound is the producer-side mirror: a freed slot lowers
// full after exactly two producer ticks.
func TestFullDelayBound(t *testing.T) {
	f := afifo.NewWordFIFO(4, 8)
	w, r := f.Writer(), f.Reader()

	for i := range 4 {
		if err := w.Enqueue(uint64(i)); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if !w.Full() {
		t.Fatal("Full after filling: got false, want true")
	}

	r.Idle()
	r.Idle()
	if _, err := r.Dequeue(); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	w.Idle()
	if !w.Full() {
		t.Fatal("Full after one producer tick: got false, want true")
	}
	w.Idle()
	if w.Full() {
		t.Fatal("Full after two producer ticks: got true, want false")
	}
}

// TestSyncStagesDeeper verifies the relay latency tracks the
// configured synchronizer depth.
func TestSyncStagesDeeper(t *testing.T) {
	f := afifo.New(4).DataWidth(8).SyncStages(4).BuildWord()
	w, r := f.Writer(), f.Reader()

	if err := w.Enqueue(7); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	for i := range 3 {
		r.Idle()
		if !r.Empty() {
			t.Fatalf("Empty after %d consumer ticks: got false, want true", i+1)
		}
	}
	r.Idle()
	if r.Empty() {
		t.Fatal("Empty after four consumer ticks: got true, want false")
	}
}

// =============================================================================
// Invariants
// =============================================================================

// TestFlagMutualExclusion steps both domains 1:1 through scripted
// fill/drain traffic and asserts full and empty are never raised
// together.
func TestFlagMutualExclusion(t *testing.T) {
	f := afifo.NewWordFIFO(8, 16)
	w, r := f.Writer(), f.Reader()

	seed := uint64(0x9e3779b97f4a7c15)
	rnd := func() uint64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return seed >> 33
	}

	next := uint64(0)
	for step := range 4096 {
		if rnd()%4 != 0 { // producer requests 3 ticks out of 4
			if err := w.Enqueue(next); err == nil {
				next++
			}
		} else {
			w.Idle()
		}
		if rnd()%2 == 0 {
			_, _ = r.Dequeue()
		} else {
			r.Idle()
		}

		if w.Full() && r.Empty() {
			t.Fatalf("step %d: full and empty both raised", step)
		}
	}
}

// TestNoOverflowNoUnderflow tracks true occupancy alongside scripted
// traffic: an accept must never push occupancy past capacity or below
// zero.
func TestNoOverflowNoUnderflow(t *testing.T) {
	f := afifo.NewWordFIFO(4, 16)
	w, r := f.Writer(), f.Reader()

	seed := uint64(1)
	rnd := func() uint64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return seed >> 33
	}

	occupancy := 0
	next := uint64(0)
	for step := range 8192 {
		if rnd()%3 != 0 {
			if err := w.Enqueue(next); err == nil {
				next++
				occupancy++
				if occupancy > f.Cap() {
					t.Fatalf("step %d: accepted write at occupancy %d, capacity %d", step, occupancy-1, f.Cap())
				}
			}
		} else {
			w.Idle()
		}
		if rnd()%3 != 0 {
			if _, err := r.Dequeue(); err == nil {
				occupancy--
				if occupancy < 0 {
					t.Fatalf("step %d: accepted read on empty queue", step)
				}
			}
		} else {
			r.Idle()
		}
	}
}

// TestStreamingOrder pushes a long sequence through with both domains
// stepped 1:1 and verifies strict FIFO discipline end to end.
func TestStreamingOrder(t *testing.T) {
	f := afifo.NewWordFIFO(8, 32)
	w, r := f.Writer(), f.Reader()

	const total = 1000
	got := make([]uint64, 0, total)
	next := uint64(0)

	for steps := 0; len(got) < total; steps++ {
		if steps > 100*total {
			t.Fatalf("no progress: %d of %d items after %d steps", len(got), total, steps)
		}
		if next < total {
			if err := w.Enqueue(next); err == nil {
				next++
			}
		} else {
			w.Idle()
		}
		if v, err := r.Dequeue(); err == nil {
			got = append(got, v)
		}
	}

	for i, v := range got {
		if v != uint64(i) {
			t.Fatalf("item %d: got %d, want %d", i, v, i)
		}
	}
}

// =============================================================================
// Reset
// =============================================================================

// TestReset holds the reset level mid-traffic and verifies both ports
// return to the agreed-upon zero state.
func TestReset(t *testing.T) {
	f := afifo.NewWordFIFO(4, 8)
	w, r := f.Writer(), f.Reader()

	for i := range 3 {
		if err := w.Enqueue(uint64(40 + i)); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	r.Idle()
	r.Idle()
	if _, err := r.Dequeue(); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	f.AssertReset()

	// Cleared state is visible before either domain ticks.
	if !f.InReset() {
		t.Fatal("InReset: got false, want true")
	}
	if w.Full() {
		t.Fatal("Full under reset: got true, want false")
	}
	if !r.Empty() {
		t.Fatal("Empty under reset: got false, want true")
	}

	// Requests under reset are rejected as would-block, not as a full
	// or empty condition: the flags report the cleared state.
	if err := w.Enqueue(99); !afifo.IsWouldBlock(err) {
		t.Fatalf("Enqueue under reset: got %v, want would-block", err)
	} else if errors.Is(err, afifo.ErrFull) {
		t.Fatalf("Enqueue under reset: got ErrFull with full flag low")
	}
	if _, err := r.Dequeue(); !afifo.IsWouldBlock(err) {
		t.Fatalf("Dequeue under reset: got %v, want would-block", err)
	} else if errors.Is(err, afifo.ErrEmpty) {
		t.Fatalf("Dequeue under reset: got ErrEmpty for a reset rejection")
	}
	if _, ok := r.Output(); ok {
		t.Fatal("Output under reset: valid, want invalid")
	}

	f.ReleaseReset()

	// The pre-reset items are gone; new traffic starts from slot zero.
	if _, err := r.Dequeue(); !errors.Is(err, afifo.ErrEmpty) {
		t.Fatalf("Dequeue after reset: got %v, want ErrEmpty", err)
	}
	if err := w.Enqueue(7); err != nil {
		t.Fatalf("Enqueue after reset: %v", err)
	}
	r.Idle()
	r.Idle()
	if v, err := r.Dequeue(); err != nil || v != 7 {
		t.Fatalf("Dequeue after reset: got (%d, %v), want (7, nil)", v, err)
	}
}

// =============================================================================
// Scripted Scenarios
// =============================================================================

// TestSaturationScenario attempts 20 back-to-back writes into 16
// slots: exactly 16 land, the rest reject with full raised, and the 16
// stored items come out intact.
func TestSaturationScenario(t *testing.T) {
	f := afifo.NewWordFIFO(16, 8)
	w, r := f.Writer(), f.Reader()

	accepted := 0
	for i := range 20 {
		err := w.Enqueue(uint64(i))
		if err == nil {
			accepted++
			continue
		}
		if !errors.Is(err, afifo.ErrFull) {
			t.Fatalf("Enqueue(%d): got %v, want ErrFull", i, err)
		}
		if !w.Full() {
			t.Fatalf("Enqueue(%d) rejected with full flag low", i)
		}
	}
	if accepted != 16 {
		t.Fatalf("accepted writes: got %d, want 16", accepted)
	}

	r.Idle()
	r.Idle()
	for i := range 16 {
		v, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if v != uint64(i) {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, i)
		}
	}
}

// TestDrainScenario issues 5 reads on an empty queue: all reject with
// empty raised, and the scoreboard records no underflow because no
// accept ever fires.
func TestDrainScenario(t *testing.T) {
	f := afifo.NewWordFIFO(16, 8)
	r := f.Reader()
	sb := afifo.NewScoreboard[uint64](f.Cap())

	for i := range 5 {
		out, _ := r.Output()
		sb.Observe(out)
		if _, err := r.Dequeue(); !errors.Is(err, afifo.ErrEmpty) {
			t.Fatalf("Dequeue(%d): got %v, want ErrEmpty", i, err)
		}
		if !r.Empty() {
			t.Fatalf("Dequeue(%d) rejected with empty flag low", i)
		}
	}

	report := sb.Report()
	if report.Underflows != 0 {
		t.Fatalf("underflows: got %d, want 0", report.Underflows)
	}
	if !report.Pass() {
		t.Fatalf("report: %v, want pass", report)
	}
}

// TestEndToEndScenario runs the reference scenario: capacity=16,
// width=8, write 0..15 (each only when not full), settle, read 16
// items (each only when not empty), with the scoreboard attached and
// the flag exclusion checked every step. Expects the exact sequence
// 0..15, a final empty queue, and a passing report.
func TestEndToEndScenario(t *testing.T) {
	f := afifo.NewWordFIFO(16, 8)
	w, r := f.Writer(), f.Reader()
	sb := afifo.NewScoreboard[uint64](f.Cap())

	// Write phase. The consumer domain keeps ticking idle.
	written := 0
	for written < 16 {
		if w.Full() {
			w.Idle()
		} else {
			sb.NoteWrite(uint64(written))
			if err := w.Enqueue(uint64(written)); err != nil {
				t.Fatalf("Enqueue(%d): %v", written, err)
			}
			written++
		}
		r.Idle()
		sb.CheckFlags(w.Full(), r.Empty())
	}

	// Read phase. The producer domain keeps ticking idle.
	var got []uint64
	for len(got) < 16 {
		w.Idle()
		out, _ := r.Output()
		sb.Observe(out)
		if r.Empty() {
			r.Idle()
		} else {
			v, err := r.Dequeue()
			if err != nil {
				t.Fatalf("Dequeue(%d): %v", len(got), err)
			}
			sb.NoteRead()
			got = append(got, v)
		}
		sb.CheckFlags(w.Full(), r.Empty())
	}

	// Settle: flush the final armed comparison, let full decay.
	for range 4 {
		w.Idle()
		out, _ := r.Output()
		sb.Observe(out)
		r.Idle()
		sb.CheckFlags(w.Full(), r.Empty())
	}

	for i, v := range got {
		if v != uint64(i) {
			t.Fatalf("output %d: got %d, want %d", i, v, i)
		}
	}
	if !r.Empty() {
		t.Fatal("final Empty: got false, want true")
	}
	if w.Full() {
		t.Fatal("final Full: got true, want false")
	}

	report := sb.Report()
	if !report.Pass() {
		t.Fatalf("report: %v, want pass", report)
	}
	if report.Writes != 16 || report.Reads != 16 {
		t.Fatalf("report counts: writes=%d reads=%d, want 16/16", report.Writes, report.Reads)
	}
	if sb.Outstanding() != 0 {
		t.Fatalf("outstanding: got %d, want 0", sb.Outstanding())
	}
}

// =============================================================================
// Construction
// =============================================================================

func TestCapacityRounding(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{2, 2},
		{3, 4},
		{4, 4},
		{1000, 1024},
		{1024, 1024},
	}
	for _, tt := range tests {
		f := afifo.NewFIFO[int](tt.capacity)
		if f.Cap() != tt.want {
			t.Fatalf("Cap(NewFIFO(%d)): got %d, want %d", tt.capacity, f.Cap(), tt.want)
		}
	}
}

func TestWordMasking(t *testing.T) {
	f := afifo.New(4).DataWidth(8).BuildWord()
	w, r := f.Writer(), f.Reader()

	if f.DataWidth() != 8 {
		t.Fatalf("DataWidth: got %d, want 8", f.DataWidth())
	}

	if err := w.Enqueue(0x1ff); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	r.Idle()
	r.Idle()
	if v, err := r.Dequeue(); err != nil || v != 0xff {
		t.Fatalf("Dequeue: got (%#x, %v), want (0xff, nil)", v, err)
	}
}

func TestConstructionPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"capacity below minimum", func() { afifo.New(1) }},
		{"fifo capacity below minimum", func() { afifo.NewFIFO[int](0) }},
		{"data width zero", func() { afifo.New(4).DataWidth(0) }},
		{"data width too wide", func() { afifo.New(4).DataWidth(65) }},
		{"sync stages too shallow", func() { afifo.New(4).SyncStages(1) }},
		{"word width zero", func() { afifo.NewWordFIFO(4, 0) }},
		{"scoreboard capacity", func() { afifo.NewScoreboard[int](1) }},
		{"scoreboard flag window", func() { afifo.NewScoreboard[int](4).FlagWindow(0) }},
		{"harness capacity", func() { afifo.NewHarness(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.fn()
		})
	}
}
