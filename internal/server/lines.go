package server

import "bytes"

// lineRelay is an io.Writer that hands every complete line to fn.
// Incomplete lines are buffered until a newline arrives or flush is called.
type lineRelay struct {
	fn  func(line string)
	buf []byte
}

func newLineRelay(fn func(line string)) *lineRelay {
	return &lineRelay{fn: fn}
}

func (w *lineRelay) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		w.fn(string(bytes.TrimSuffix(w.buf[:idx], []byte{'\r'})))
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

func (w *lineRelay) flush() {
	if len(w.buf) == 0 {
		return
	}
	w.fn(string(w.buf))
	w.buf = nil
}
