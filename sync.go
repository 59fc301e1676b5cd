// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

// synchronizer is the receiving-domain shadow of the other domain's
// Gray-coded pointer: a shift register advanced once per receiving
// tick. The exposed value is the last stage, so a change on the wire
// becomes visible after exactly len(stages) receiving ticks.
//
// The exposed value is always a word the sending domain genuinely
// published at some past tick. It may lag the sender, never lead it,
// which is what keeps the derived full/empty flags conservative.
type synchronizer struct {
	stages []uint64
}

// DefaultSyncStages is the default synchronizer depth. Two stages is
// the classic double-flop arrangement; deeper chains trade latency for
// margin and are configured through [Builder.SyncStages].
const DefaultSyncStages = 2

func newSynchronizer(depth int) synchronizer {
	if depth < 2 {
		panic("afifo: synchronizer depth must be >= 2")
	}
	return synchronizer{stages: make([]uint64, depth)}
}

// sample advances the shift register by one receiving-domain tick:
// each stage takes the previous stage's value and the first stage
// takes the word currently on the wire.
func (s *synchronizer) sample(wire uint64) {
	copy(s.stages[1:], s.stages)
	s.stages[0] = wire
}

// value returns the settled shadow (the last stage).
func (s *synchronizer) value() uint64 {
	return s.stages[len(s.stages)-1]
}

// clear zeroes every stage. Reset path only.
func (s *synchronizer) clear() {
	for i := range s.stages {
		s.stages[i] = 0
	}
}
