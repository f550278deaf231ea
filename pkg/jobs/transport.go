package jobs

import (
	"context"
	"time"
)

// EnqueueRequest describes one job submission
type EnqueueRequest struct {
	WorkerID string
	// Method selects the runner method; blank selects the only method when
	// the runner declares exactly one
	Method   string
	UniqKey  string
	Priority int32
	Timeout  time.Duration
	RunAfter time.Time
	// Args holds the encoded arguments. Client.Enqueue fills it in.
	Args []byte
}

// EnqueueResult is what the job service returned
type EnqueueResult struct {
	JobID string
	// Output holds the result bytes of a direct job, nil otherwise
	Output []byte
}

// Transport submits encoded jobs to the job service
type Transport interface {
	Enqueue(ctx context.Context, req *EnqueueRequest) (*EnqueueResult, error)
}
