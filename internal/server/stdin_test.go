package server

import (
	"io"
	"runtime"
	"testing"
	"time"
)

func TestStdinRelayDeliversInput(t *testing.T) {
	src, w := io.Pipe()
	defer w.Close()
	relay := NewStdinRelay(src)

	done := make(chan struct{})
	reader := relay.Reader(done)
	go w.Write([]byte("yes\n"))

	buf := make([]byte, 16)
	n, err := reader.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := string(buf[:n]); got != "yes\n" {
		t.Fatalf("expected %q, got %q", "yes\n", got)
	}
	close(done)
}

func TestStdinRelayReaderEndsWithCommand(t *testing.T) {
	src, w := io.Pipe()
	defer w.Close()
	relay := NewStdinRelay(src)

	done := make(chan struct{})
	reader := relay.Reader(done)

	result := make(chan error, 1)
	go func() {
		_, err := reader.Read(make([]byte, 16))
		result <- err
	}()

	close(done)
	select {
	case err := <-result:
		if err != io.EOF {
			t.Fatalf("expected io.EOF after the command finished, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader still blocked after the command finished")
	}
}

func TestStdinRelayKeepsUnreadInput(t *testing.T) {
	src, w := io.Pipe()
	defer w.Close()
	relay := NewStdinRelay(src)

	first := make(chan struct{})
	go w.Write([]byte("abcdef"))
	buf := make([]byte, 2)
	n, err := relay.Reader(first).Read(buf)
	if err != nil || string(buf[:n]) != "ab" {
		t.Fatalf("expected %q, got %q (err %v)", "ab", buf[:n], err)
	}
	close(first)

	second := make(chan struct{})
	defer close(second)
	rest := make([]byte, 16)
	n, err = relay.Reader(second).Read(rest)
	if err != nil || string(rest[:n]) != "cdef" {
		t.Fatalf("expected %q, got %q (err %v)", "cdef", rest[:n], err)
	}
}

func TestStdinRelaySequentialCommandsDoNotLeak(t *testing.T) {
	src, w := io.Pipe()
	defer w.Close()
	relay := NewStdinRelay(src)

	// Start the single reader goroutine before counting.
	warmup := make(chan struct{})
	relay.Reader(warmup)
	close(warmup)
	time.Sleep(50 * time.Millisecond)
	before := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		done := make(chan struct{})
		reader := relay.Reader(done)
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			io.Copy(io.Discard, reader)
		}()
		close(done)
		<-finished
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Fatalf("expected no goroutines left reading stdin, before=%d after=%d", before, after)
	}
}
