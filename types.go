// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

// Producer is the write-port surface of a FIFO as seen from the
// producer timing domain.
//
// Every method is one tick of that domain. A port belongs to exactly
// one domain: one goroutine, or one side of a scripted driver that
// steps the domains itself. The domain keeps ticking (Idle) even when
// it has no request, so its shadow of the remote pointer stays
// current.
type Producer[T any] interface {
	// Enqueue runs one tick carrying a write request (non-blocking).
	// Returns nil on acceptance, ErrFull on rejection. A rejected
	// request has no effect beyond the tick itself and may be
	// re-presented later.
	Enqueue(elem *T) error

	// Idle runs one tick with no request.
	Idle()

	// Full returns the registered full flag.
	Full() bool
}

// Consumer is the read-port surface of a FIFO as seen from the
// consumer timing domain.
type Consumer[T any] interface {
	// Dequeue runs one tick carrying a read request (non-blocking).
	// Returns the dequeued element, or (zero-value, ErrEmpty) on
	// rejection.
	Dequeue() (T, error)

	// Idle runs one tick with no request.
	Idle()

	// Empty returns the registered empty flag.
	Empty() bool

	// Output returns the output register and whether it holds a
	// value. Loaded by an accepted Dequeue, observable from the
	// following tick.
	Output() (T, bool)
}

var (
	_ Producer[int] = (*Writer[int])(nil)
	_ Consumer[int] = (*Reader[int])(nil)
)
