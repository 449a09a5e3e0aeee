package task

import "github.com/tpodg/nfsprov/internal/remote"

// StepResult accumulates command results in execution order.
type StepResult struct {
	keys    []string
	results map[string]remote.CommandResult
}

func NewStepResult() *StepResult {
	return &StepResult{results: make(map[string]remote.CommandResult)}
}

// Add records res under id. Re-adding an id replaces its result but keeps
// its original position.
func (r *StepResult) Add(id string, res remote.CommandResult) {
	if _, exists := r.results[id]; !exists {
		r.keys = append(r.keys, id)
	}
	r.results[id] = res
}

func (r *StepResult) Get(id string) (remote.CommandResult, bool) {
	if r == nil {
		return remote.CommandResult{}, false
	}
	res, ok := r.results[id]
	return res, ok
}

// Keys returns step ids in the order they were first added.
func (r *StepResult) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

func (r *StepResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Succeeded reports whether every recorded step succeeded.
func (r *StepResult) Succeeded() bool {
	_, _, failed := r.FirstFailure()
	return !failed
}

// FirstFailure returns the earliest failed step, if any.
func (r *StepResult) FirstFailure() (string, remote.CommandResult, bool) {
	if r == nil {
		return "", remote.CommandResult{}, false
	}
	for _, key := range r.keys {
		if res := r.results[key]; !res.Succeeded {
			return key, res, true
		}
	}
	return "", remote.CommandResult{}, false
}
