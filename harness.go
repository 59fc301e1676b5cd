// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Harness runs the scripted verification scenario against a
// [WordFIFO]: exactly capacity write requests, a settling window, then
// exactly capacity read requests, with a [Scoreboard] attached
// throughout.
//
// The two domains are two free-running goroutines with no shared
// clock. Each paces its own ticks by a configurable number of spin
// units, so either domain may run faster, slower, or drift relative to
// the other; the scoreboard's flag check counts a full/empty overlap
// only when it persists through the flag window of both domains'
// ticks, so relay lag and scheduler stalls are not scored.
//
// Example:
//
//	report := afifo.NewHarness(16).DataWidth(8).Run()
//	if !report.Pass() {
//	    log.Fatal(report)
//	}
type Harness struct {
	capacity   int
	dataWidth  int
	syncStages int
	writerPace int
	readerPace int
	settle     int
}

// NewHarness creates a harness for the given FIFO capacity with an
// 8-bit data width and slightly asymmetric default paces.
// Panics if capacity < 2.
func NewHarness(capacity int) *Harness {
	if capacity < 2 {
		panic("afifo: capacity must be >= 2")
	}
	return &Harness{
		capacity:   capacity,
		dataWidth:  8,
		syncStages: DefaultSyncStages,
		writerPace: 2,
		readerPace: 3,
		settle:     2*DefaultSyncStages + 2,
	}
}

// DataWidth sets the word width in bits. Panics if bits is outside
// [1, 64].
func (h *Harness) DataWidth(bits int) *Harness {
	if bits < 1 || bits > 64 {
		panic("afifo: data width must be in [1, 64]")
	}
	h.dataWidth = bits
	return h
}

// SyncStages sets the synchronizer depth of the FIFO under test.
// Panics if n < 2.
func (h *Harness) SyncStages(n int) *Harness {
	if n < 2 {
		panic("afifo: synchronizer depth must be >= 2")
	}
	h.syncStages = n
	h.settle = 2*n + 2
	return h
}

// WriterPace sets the producer domain's tick period in spin units.
func (h *Harness) WriterPace(units int) *Harness {
	if units < 0 {
		panic("afifo: pace must be >= 0")
	}
	h.writerPace = units
	return h
}

// ReaderPace sets the consumer domain's tick period in spin units.
func (h *Harness) ReaderPace(units int) *Harness {
	if units < 0 {
		panic("afifo: pace must be >= 0")
	}
	h.readerPace = units
	return h
}

// Run executes the scenario and returns the end-of-run report.
func (h *Harness) Run() Report {
	f := newWordFIFO(h.capacity, h.dataWidth, h.syncStages)
	capacity := f.Cap()
	sb := NewScoreboard[uint64](capacity).FlagWindow(h.syncStages + 1)
	dataMask := ^uint64(0)
	if h.dataWidth < 64 {
		dataMask = 1<<h.dataWidth - 1
	}

	var (
		wg         sync.WaitGroup
		writesDone atomix.Bool
		stop       atomix.Bool
	)

	// Producer domain: capacity write requests, then idle ticks until
	// the consumer is done, so the full flag keeps tracking.
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := f.Writer()
		backoff := iox.Backoff{}
		pace := func() {
			sw := spin.Wait{}
			for range h.writerPace {
				sw.Once()
			}
		}

		for i := range capacity {
			for w.Full() {
				// Re-present the rejected request next tick.
				_ = w.Enqueue(uint64(i))
				sb.NoteFull(w.Full())
				backoff.Wait()
				pace()
			}
			backoff.Reset()
			// The registered flag is low, so this tick must accept.
			// Record the expectation before the slot becomes visible
			// to the consumer domain.
			sb.NoteWrite(uint64(i) & dataMask)
			_ = w.Enqueue(uint64(i))
			sb.NoteFull(w.Full())
			pace()
		}
		writesDone.StoreRelease(true)

		for !stop.LoadAcquire() {
			w.Idle()
			sb.NoteFull(w.Full())
			pace()
		}
	}()

	// Consumer domain: idle ticks while the write phase runs (the
	// shadow of the write pointer must keep advancing), a settling
	// window, then capacity read requests.
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := f.Reader()
		backoff := iox.Backoff{}
		pace := func() {
			sw := spin.Wait{}
			for range h.readerPace {
				sw.Once()
			}
		}
		observe := func() {
			// Pre-tick: if the previous tick accepted a read, the
			// output register now holds its item.
			out, _ := r.Output()
			sb.Observe(out)
		}
		idle := func() {
			observe()
			r.Idle()
			sb.NoteEmpty(r.Empty())
			pace()
		}

		for !writesDone.LoadAcquire() {
			idle()
		}
		for range h.settle {
			idle()
		}

		for done := 0; done < capacity; {
			observe()
			_, err := r.Dequeue()
			sb.NoteEmpty(r.Empty())
			if err == nil {
				sb.NoteRead()
				done++
				backoff.Reset()
			} else {
				backoff.Wait()
			}
			pace()
		}

		// Settle and flush the final armed comparison.
		for range h.settle {
			idle()
		}
		stop.StoreRelease(true)
	}()

	wg.Wait()
	return sb.Report()
}
