// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package afifo

// RaceEnabled is true when the race detector is active.
// Used by tests to skip free-running two-domain runs: the slot array
// is ordered by release/acquire publication of the Gray pointers
// through the synchronizer stages, a chain the detector cannot always
// follow across the generic slot writes.
const RaceEnabled = true
