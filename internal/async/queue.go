package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one batch of files discovered together, e.g. by the watcher.
type Job struct {
	ID          uuid.UUID
	Paths       []string
	SubmittedAt time.Time
}

func NewJob(paths []string) Job {
	return Job{ID: uuid.New(), Paths: paths, SubmittedAt: time.Now()}
}

// Handler runs a single job. Jobs are handed to it one at a time per worker.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
