package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tpodg/nfsprov/internal/nfs"
)

type format string

const (
	formatText format = "text"
	formatYAML format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(s); f {
	case formatText, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text or yaml)", s)
	}
}

type stepReport struct {
	Step      string `yaml:"step"`
	Succeeded bool   `yaml:"succeeded"`
	Stdout    string `yaml:"stdout,omitempty"`
	Stderr    string `yaml:"stderr,omitempty"`
}

// report is the user-facing summary of one deployment run.
type report struct {
	Role      string       `yaml:"role"`
	Host      string       `yaml:"host"`
	Succeeded bool         `yaml:"succeeded"`
	State     string       `yaml:"state"`
	Message   string       `yaml:"message"`
	Error     string       `yaml:"error,omitempty"`
	Steps     []stepReport `yaml:"steps,omitempty"`
}

func newReport(o *nfs.Orchestrator, ok bool, diag nfs.Diagnostics) report {
	r := report{
		Role:      o.Role().String(),
		Host:      o.Host(),
		Succeeded: ok,
		State:     diag.State.String(),
		Message:   diag.Message,
	}
	if diag.Err != nil {
		r.Error = diag.Err.Error()
	}
	for _, key := range diag.Steps.Keys() {
		res, _ := diag.Steps.Get(key)
		r.Steps = append(r.Steps, stepReport{
			Step:      key,
			Succeeded: res.Succeeded,
			Stdout:    res.Stdout,
			Stderr:    res.Stderr,
		})
	}
	return r
}

func writeReport(w io.Writer, f format, r report) error {
	if f == formatYAML {
		out, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	fmt.Fprintln(w, r.Message)
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	for _, step := range r.Steps {
		status := "ok"
		if !step.Succeeded {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  [%s] %s\n", status, step.Step)
		if !step.Succeeded && step.Stderr != "" {
			fmt.Fprintf(w, "    %s\n", strings.TrimSpace(step.Stderr))
		}
	}
	return nil
}
