package server

import (
	"io"
	"sync"
)

const stdinChunkSize = 4096

// StdinRelay shares one local input stream between sequential remote
// commands. A single goroutine reads the source; each command gets a reader
// that returns EOF once the command has finished, so no reader outlives its
// session.
type StdinRelay struct {
	src    io.Reader
	start  sync.Once
	chunks chan []byte

	mu      sync.Mutex
	pending []byte
}

func NewStdinRelay(src io.Reader) *StdinRelay {
	return &StdinRelay{src: src, chunks: make(chan []byte)}
}

// Reader returns a reader for one command. It stops returning data when done
// is closed. Input not consumed by the command stays queued for the next one.
func (r *StdinRelay) Reader(done <-chan struct{}) io.Reader {
	r.start.Do(func() { go r.pump() })
	return &sessionReader{relay: r, done: done}
}

func (r *StdinRelay) pump() {
	defer close(r.chunks)
	for {
		buf := make([]byte, stdinChunkSize)
		n, err := r.src.Read(buf)
		if n > 0 {
			r.chunks <- buf[:n]
		}
		if err != nil {
			return
		}
	}
}

// take copies queued input into p, keeping the remainder queued.
func (r *StdinRelay) take(p []byte, chunk []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chunk != nil {
		r.pending = append(r.pending, chunk...)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n
}

type sessionReader struct {
	relay *StdinRelay
	done  <-chan struct{}
}

func (s *sessionReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	select {
	case <-s.done:
		return 0, io.EOF
	default:
	}
	if n := s.relay.take(p, nil); n > 0 {
		return n, nil
	}

	select {
	case <-s.done:
		return 0, io.EOF
	case chunk, ok := <-s.relay.chunks:
		if !ok {
			return 0, io.EOF
		}
		return s.relay.take(p, chunk), nil
	}
}
