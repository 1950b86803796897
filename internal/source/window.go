// Package source adapts a raw I/Q byte producer — an RTL-SDR device or
// a captured file — into the rolling sample window the demodulator
// consumes. Producer and consumer hand off fixed-size windows by
// ownership: the consumer reads the window the producer most recently
// finished filling, never the one it's writing.
package source

import (
	"sync"

	"go1090/internal/modes"
)

// carryBytes is the tail length copied forward from one window fill
// to the next so a frame straddling two fills is still detectable.
func carryBytes() int {
	fullLen := modes.PreambleUS + modes.LongMsgBits
	return 4 * (fullLen - 1)
}

// Window is a double-buffered rolling sample window: one buffer is
// owned by the producer (being filled) while the other is owned by
// the consumer (being demodulated), and they swap on every Fill.
type Window struct {
	mu       sync.Mutex
	dataLen  int
	buf      [2][]byte
	active   int // index the consumer currently owns
	readyGen uint64
}

// NewWindow allocates both buffers at dataLen+carry bytes.
func NewWindow(dataLen int) *Window {
	size := dataLen + carryBytes()
	w := &Window{dataLen: dataLen}
	w.buf[0] = make([]byte, size)
	w.buf[1] = make([]byte, size)
	return w
}

// Fill is called by the producer with a freshly captured chunk of up
// to dataLen bytes. It carries the tail of the previous window
// forward, copies chunk in behind it, and swaps the consumer-visible
// buffer.
func (w *Window) Fill(chunk []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.active ^ 1
	carry := carryBytes()

	copy(w.buf[next][:carry], w.buf[w.active][w.dataLen:w.dataLen+carry])
	n := copy(w.buf[next][carry:], chunk)
	if n < len(chunk) {
		// Producer handed us more than one window's worth; this is a
		// caller bug, not a runtime condition to recover from silently.
		panic("source: chunk larger than window data length")
	}

	w.active = next
	w.readyGen++
}

// Current returns the buffer currently owned by the consumer and its
// generation counter, for detecting whether a new fill has occurred
// since the last read.
func (w *Window) Current() ([]byte, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf[w.active], w.readyGen
}
