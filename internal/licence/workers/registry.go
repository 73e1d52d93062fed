package workers

import (
	"context"
	"maps"
	"slices"

	dErrors "licences/pkg/domain-errors"
)

// Registry runs jobs by name for the ops endpoint and the CLI.
type Registry struct {
	runner *Runner
	jobs   map[string]Job
}

func NewRegistry(runner *Runner, jobs ...Job) *Registry {
	r := &Registry{runner: runner, jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

// Names lists the registered jobs in alphabetical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.jobs))
}

// Run executes the named job once through the runner.
func (r *Registry) Run(ctx context.Context, name string) (Result, error) {
	job, ok := r.jobs[name]
	if !ok {
		return Result{}, dErrors.New(dErrors.CodeNotFound, "unknown job "+name)
	}
	return r.runner.Run(ctx, job)
}
