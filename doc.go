// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package afifo provides a bounded FIFO queue crossed by two
// independent timing domains, modeled after the dual-clock
// (asynchronous) FIFO used to move data between unrelated clocks.
//
// One domain writes, the other reads, and neither shares a clock or a
// lock with the other. Each port owns a private position counter one
// bit wider than the slot address; the Gray encoding of that counter
// is the only value that crosses domains, relayed through a two-stage
// synchronizer so the receiver can never observe a torn multi-bit
// word (consecutive Gray codes differ in one bit, so a mid-transition
// sample is either the old or the new pointer). Full and empty are
// derived per port by comparing the local Gray pointer against the
// shadowed remote one.
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	f := afifo.NewFIFO[Event](1024)
//	f := afifo.NewWordFIFO(16, 8) // 16 slots of 8-bit words
//
// Builder API for non-default configuration:
//
//	f := afifo.Build[Event](afifo.New(1024).SyncStages(3))
//	f := afifo.New(16).DataWidth(8).BuildWord()
//
// # Basic Usage
//
// Each port belongs to exactly one domain (one goroutine, or one side
// of a scripted driver). Every operation is one tick of that domain:
//
//	w, r := f.Writer(), f.Reader()
//
//	// Producer domain
//	v := Event{...}
//	err := w.Enqueue(&v)
//	if afifo.IsWouldBlock(err) {
//	    // Full this tick - re-present the request on a later tick
//	}
//
//	// Consumer domain
//	elem, err := r.Dequeue()
//	if afifo.IsWouldBlock(err) {
//	    // Empty this tick - try again later
//	}
//
// A domain with nothing to request still ticks:
//
//	w.Idle() // keeps the shadow of the read pointer advancing
//	r.Idle()
//
// Idle ticks matter: the full and empty flags are computed from the
// synchronized shadow of the remote pointer, and the shadow only
// advances when the local domain ticks.
//
// # Flag Semantics
//
// Full and empty are conservative. The shadow lags the remote domain
// by the synchronizer depth (two ticks by default), so a port may see
// full after the consumer has already freed a slot, or empty after
// the producer has already stored an item. The lag is always on the
// safe side: full is never lowered while the queue truly holds
// capacity items, and empty is never lowered while it holds nothing.
// When both domains are stepped in lockstep the flags are mutually
// exclusive; under skewed clocks a stale flag may briefly overlap the
// fresh one while it decays through the lagging domain's synchronizer.
//
// # Reset
//
// Reset is a level, asynchronous to both domains:
//
//	f.AssertReset()  // both ports clear on their next tick
//	f.ReleaseReset() // resume from counters zero, empty raised
//
// While the level is held every request is rejected and both ports
// report the cleared state.
//
// # Error Handling
//
// Rejection is control flow, not failure. [ErrFull] and [ErrEmpty]
// wrap [ErrWouldBlock], sourced from [code.hybscloud.com/iox] for
// ecosystem consistency:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := w.Enqueue(&v)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !afifo.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Verification
//
// The package carries its own verification harness. [Scoreboard] is an
// independent expected-order record and checker: it observes accept
// decisions and the output register from outside the FIFO and counts
// data mismatches, reference underflows and full/empty overlap.
// [Harness] runs the scripted fill-then-drain scenario with the two
// domains on free-running goroutines at independent paces:
//
//	report := afifo.NewHarness(16).DataWidth(8).Run()
//	fmt.Println(report) // PASS: writes=16 reads=16 errors=0 ...
//
// # Capacity
//
// Capacity rounds up to the next power of 2. Minimum capacity is 2.
// Panic if capacity < 2. The position counters carry one bit beyond
// the address width, which is what lets the full compare distinguish
// a wrapped pointer from an equal unwrapped one.
//
// # Race Detection
//
// The slot array is protected by release/acquire publication of the
// Gray pointers, relayed through synchronizer stages. The race
// detector cannot always follow that chain, so free-running two-domain
// tests are excluded via //go:build !race; single-stepped drivers are
// race-clean.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, and [code.hybscloud.com/spin] for CPU
// pause based pacing in the harness.
package afifo
