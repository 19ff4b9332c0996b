package kfmt

import "io"

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each output line.
type PrefixWriter struct {
	// Sink receives all writes.
	Sink io.Writer

	// Prefix is injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Write forwards p to the underlying writer, inserting the configured prefix
// after every newline. The injected prefix bytes are not counted in the
// returned length.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for _, b := range p {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		n, err := w.Sink.Write([]byte{b})
		written += n
		if err != nil {
			return written, err
		}

		if b == '\n' {
			w.midLine = false
		}
	}

	return written, nil
}
