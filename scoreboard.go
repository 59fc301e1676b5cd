// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

import (
	"fmt"

	"code.hybscloud.com/atomix"
)

// Scoreboard cross-checks a FIFO under test against an independent
// expected-order record.
//
// The scoreboard never looks inside the FIFO. It observes the accept
// decisions and the output register from the outside: NoteWrite on
// every accepted write, NoteRead on every accepted read, Observe on
// every consumer tick. Because the output register is loaded one tick
// behind the accept, an accepted read arms a comparison that the next
// Observe performs against the then-current register value.
//
// Domain affinity mirrors the FIFO's: NoteWrite and NoteFull belong to
// the producer domain, NoteRead, Observe and NoteEmpty to the consumer
// domain. CheckFlags is for single-stepped drivers that hold both
// flags at one instant and is exact. The cross-domain NoteFull and
// NoteEmpty path is lag tolerant instead: the registered flags
// genuinely overlap while a stale flag decays through the
// synchronizer, and a published level outlives its domain's tick when
// the goroutine stalls, so an overlap is counted only once it has
// persisted through the flag window of both domains' ticks. Report may
// be called from anywhere once both domains have stopped.
//
// Detected failures are counted, not raised; a run continues past a
// mismatch so the final report carries full statistics.
type Scoreboard[T comparable] struct {
	ref refRing[T]

	writes atomix.Int64
	reads  atomix.Int64

	mismatches     atomix.Int64
	underflows     atomix.Int64
	overflows      atomix.Int64
	flagViolations atomix.Int64

	// Flag levels and tick counts as last published by each domain,
	// for the cross-domain full/empty exclusion check.
	fullLevel  atomix.Bool
	emptyLevel atomix.Bool
	fullTicks  atomix.Int64
	emptyTicks atomix.Int64

	// Overlap episode state, consumer domain only: NoteEmpty performs
	// the cross-domain check, so these have a single writer.
	flagWindow       int64
	overlap          bool
	overlapCounted   bool
	overlapFullTick  int64
	overlapEmptyTick int64

	// Consumer-domain state: set by NoteRead, consumed by Observe.
	armed bool

	// First mismatch, kept for diagnosis. Consumer domain writes,
	// Report reads after the run.
	haveMismatch bool
	wantFirst    T
	gotFirst     T
}

// NewScoreboard creates a scoreboard for a FIFO of the given capacity.
// The reference record holds twice that, so a queue-discipline bug that
// over-fills the FIFO is still recorded rather than masked.
func NewScoreboard[T comparable](capacity int) *Scoreboard[T] {
	if capacity < 2 {
		panic("afifo: capacity must be >= 2")
	}
	s := &Scoreboard[T]{flagWindow: DefaultSyncStages + 1}
	s.ref.init(capacity * 2)
	return s
}

// FlagWindow sets how many ticks of both domains a full/empty overlap
// must persist before NoteEmpty counts it as a violation. A correct
// core clears a stale registered flag within the synchronizer depth of
// the lagging domain's ticks, so the window is that depth plus one.
// Panics if ticks < 1.
func (s *Scoreboard[T]) FlagWindow(ticks int) *Scoreboard[T] {
	if ticks < 1 {
		panic("afifo: flag window must be >= 1")
	}
	s.flagWindow = int64(ticks)
	return s
}

// NoteWrite records an accepted write. Producer domain.
func (s *Scoreboard[T]) NoteWrite(item T) {
	s.writes.Add(1)
	if !s.ref.push(&item) {
		// The core has accepted far more writes than reads freed up.
		s.overflows.Add(1)
	}
}

// NoteRead records an accepted read and arms the output-register
// comparison for the next Observe. Consumer domain.
func (s *Scoreboard[T]) NoteRead() {
	s.reads.Add(1)
	s.armed = true
}

// Observe is called once per consumer tick with the current output
// register, before that tick runs. If the previous tick accepted a
// read, the register now holds its item: pop the expected head and
// compare.
func (s *Scoreboard[T]) Observe(out T) {
	if !s.armed {
		return
	}
	s.armed = false

	want, ok := s.ref.pop()
	if !ok {
		// The core accepted a read with nothing recorded to deliver,
		// or the caller's alignment is wrong.
		s.underflows.Add(1)
		return
	}
	if want != out {
		s.mismatches.Add(1)
		if !s.haveMismatch {
			s.haveMismatch = true
			s.wantFirst, s.gotFirst = want, out
		}
	}
}

// NoteFull publishes the producer domain's full flag, once per
// producer tick.
func (s *Scoreboard[T]) NoteFull(full bool) {
	s.fullTicks.Add(1)
	s.fullLevel.StoreRelease(full)
}

// NoteEmpty publishes the consumer domain's empty flag, once per
// consumer tick, and checks the exclusion against the producer's
// published full flag.
//
// An instantaneous overlap is relay lag, not a violation: a raised
// flag decays through the synchronizer, and a stalled domain leaves a
// stale level published for arbitrarily long. The overlap counts only
// once both domains have ticked through the flag window with both
// flags still raised, which a stale flag cannot survive.
func (s *Scoreboard[T]) NoteEmpty(empty bool) {
	s.emptyTicks.Add(1)
	s.emptyLevel.StoreRelease(empty)

	if !empty || !s.fullLevel.LoadAcquire() {
		s.overlap = false
		return
	}
	if !s.overlap {
		s.overlap = true
		s.overlapCounted = false
		s.overlapFullTick = s.fullTicks.Load()
		s.overlapEmptyTick = s.emptyTicks.Load()
		return
	}
	if !s.overlapCounted &&
		s.fullTicks.Load()-s.overlapFullTick >= s.flagWindow &&
		s.emptyTicks.Load()-s.overlapEmptyTick >= s.flagWindow {
		s.overlapCounted = true
		s.flagViolations.Add(1)
	}
}

// CheckFlags checks the full/empty exclusion from a driver that holds
// both flags at one instant.
func (s *Scoreboard[T]) CheckFlags(full, empty bool) {
	if full && empty {
		s.flagViolations.Add(1)
	}
}

// Outstanding returns the number of items the reference record still
// expects to see read.
func (s *Scoreboard[T]) Outstanding() int {
	return s.ref.len()
}

// FirstMismatch returns the expected and observed values of the first
// data mismatch, if one was detected.
func (s *Scoreboard[T]) FirstMismatch() (want, got T, ok bool) {
	return s.wantFirst, s.gotFirst, s.haveMismatch
}

// Report returns a snapshot of the counters and the verdict.
func (s *Scoreboard[T]) Report() Report {
	return Report{
		Writes:         s.writes.Load(),
		Reads:          s.reads.Load(),
		Mismatches:     s.mismatches.Load(),
		Underflows:     s.underflows.Load(),
		Overflows:      s.overflows.Load(),
		FlagViolations: s.flagViolations.Load(),
	}
}

// Report is the end-of-run summary of a verification run.
type Report struct {
	Writes int64 // accepted writes
	Reads  int64 // accepted reads

	Mismatches     int64 // output register differed from expected
	Underflows     int64 // read accepted with nothing recorded
	Overflows      int64 // writes accepted past the reference bound
	FlagViolations int64 // full and empty observed true together
}

// Errors returns the total error count across all kinds.
func (r Report) Errors() int64 {
	return r.Mismatches + r.Underflows + r.Overflows + r.FlagViolations
}

// Pass reports whether the run completed with zero errors.
func (r Report) Pass() bool {
	return r.Errors() == 0
}

func (r Report) String() string {
	verdict := "PASS"
	if !r.Pass() {
		verdict = "FAIL"
	}
	return fmt.Sprintf("%s: writes=%d reads=%d errors=%d (mismatch=%d underflow=%d overflow=%d flags=%d)",
		verdict, r.Writes, r.Reads, r.Errors(),
		r.Mismatches, r.Underflows, r.Overflows, r.FlagViolations)
}

// refRing is the expected-order record: a Lamport ring with cached
// indices, safe for one pushing and one popping goroutine. It is a
// deliberately different FIFO construction from the core under test —
// plain sequential indices, no Gray coding, no synchronizers — so the
// two cannot share a bug.
type refRing[T any] struct {
	_          pad
	head       atomix.Uint64 // pop side
	_          pad
	cachedTail uint64
	_          pad
	tail       atomix.Uint64 // push side
	_          pad
	cachedHead uint64
	_          pad
	buffer     []T
	mask       uint64
}

func (q *refRing[T]) init(capacity int) {
	n := uint64(roundToPow2(capacity))
	q.buffer = make([]T, n)
	q.mask = n - 1
}

func (q *refRing[T]) push(elem *T) bool {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return false
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return true
}

func (q *refRing[T]) pop() (T, bool) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, false
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, true
}

func (q *refRing[T]) len() int {
	return int(q.tail.LoadAcquire() - q.head.LoadAcquire())
}
