package scheduler

import (
	"context"
	"fmt"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a scheduler fires, keyed by name.
type Registry struct {
	order []Job
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register adds a job, rejecting duplicates so two triggers never race the
// same job under different registrations.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	if _, dup := r.names[job.Name()]; dup {
		return fmt.Errorf("job %q already registered", job.Name())
	}
	r.names[job.Name()] = struct{}{}
	r.order = append(r.order, job)
	return nil
}

// Jobs returns registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.order))
	copy(jobs, r.order)
	return jobs
}
