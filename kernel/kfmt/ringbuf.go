package kfmt

import "io"

// ringBufferSize defines the size of the ring buffer that holds early
// Printf output. It must be a power of 2.
const ringBufferSize = 2048

// ringBuffer buffers the output of Printf until an output sink is
// registered. Once full, the oldest bytes are overwritten first.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
	full           bool
}

// Write appends p to the ring buffer, overwriting the oldest buffered bytes
// when the buffer is full.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.full {
			rb.rIndex = rb.wIndex
		}
		if rb.wIndex == rb.rIndex {
			rb.full = true
		}
	}

	return len(p), nil
}

// Read reads up to len(p) buffered bytes into p. It returns io.EOF when the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.rIndex == rb.wIndex && !rb.full {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		p[n] = rb.buffer[rb.rIndex]
		rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		rb.full = false
		n++
		if rb.rIndex == rb.wIndex {
			break
		}
	}

	return n, nil
}
