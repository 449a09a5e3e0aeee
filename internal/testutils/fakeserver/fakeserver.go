package fakeserver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tpodg/nfsprov/internal/server"
)

// Response is the scripted outcome of one command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Delay is how long the command runs before responding.
	Delay time.Duration
}

// Server is a scripted server.Server that records every command it receives.
// Commands without a scripted response succeed with empty output.
type Server struct {
	name string

	mu        sync.Mutex
	responses map[string]Response
	failOn    []string
	commands  []string
}

var _ server.Server = (*Server)(nil)

func New(name string) *Server {
	return &Server{name: name, responses: make(map[string]Response)}
}

func (s *Server) ID() string      { return s.name }
func (s *Server) Address() string { return s.name }

// Respond scripts the response for an exact command.
func (s *Server) Respond(command string, resp Response) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[command] = resp
	return s
}

// FailContaining makes every command containing fragment exit with status 100.
func (s *Server) FailContaining(fragment string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = append(s.failOn, fragment)
	return s
}

// Commands returns the commands executed so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Server) Execute(ctx context.Context, command string) (server.Output, error) {
	resp := s.record(command)

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return server.Output{ExitCode: -1}, &server.CommandError{Command: command, ExitCode: -1, Err: err}
	}

	out := server.Output{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return out, &server.CommandError{Command: command, ExitCode: resp.ExitCode}
	}
	return out, nil
}

func (s *Server) record(command string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, command)
	if resp, ok := s.responses[command]; ok {
		return resp
	}
	for _, fragment := range s.failOn {
		if strings.Contains(command, fragment) {
			return Response{Stderr: "E: scripted failure", ExitCode: 100}
		}
	}
	return Response{}
}
