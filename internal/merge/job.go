package merge

import (
	"fmt"
	"sync"
	"time"

	"github.com/dusk-indust/ontomerge/internal/catalog"
	"github.com/dusk-indust/ontomerge/internal/order"
)

// Status is a MergeJob's position in its lifecycle. Terminal states are
// reached exactly once; a retried job passes through StatusRetryPending and
// back to StatusRunning without creating a new record.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusRunning      Status = "running"
	StatusRetryPending Status = "retry-pending"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusAborted      Status = "aborted"
)

// legalTransitions encodes the job state machine:
// queued → running → {succeeded | retry-pending → running | failed | aborted}.
// Queued jobs may also be aborted before ever running (unschedulable, or
// cancelled while still in the queue).
var legalTransitions = map[Status][]Status{
	StatusQueued:       {StatusRunning, StatusAborted},
	StatusRunning:      {StatusSucceeded, StatusRetryPending, StatusFailed, StatusAborted},
	StatusRetryPending: {StatusRunning, StatusFailed, StatusAborted},
}

// CostMultiplier is the default working-memory multiplier over summed input
// sizes. Merge engines routinely need several times the input size resident.
const CostMultiplier = 4.0

// Job is one planned merge: an order plus its estimated memory cost and
// lifecycle state. The zero value is not usable; construct with NewJob.
type Job struct {
	Order         order.MergeOrder
	EstimatedCost int64

	mu       sync.Mutex
	status   Status
	attempts int
}

// NewJob builds a Job for the given order. The estimated memory cost is the
// sum of the input byte sizes times multiplier (CostMultiplier when
// multiplier <= 0).
func NewJob(o order.MergeOrder, cat *catalog.Catalog, multiplier float64) (*Job, error) {
	if multiplier <= 0 {
		multiplier = CostMultiplier
	}
	var inputBytes int64
	for _, id := range o.Sequence {
		ont, ok := cat.Get(id)
		if !ok {
			return nil, fmt.Errorf("merge: order %s references unknown ontology %q", o.Key(), id)
		}
		inputBytes += ont.ByteSize
	}
	return &Job{
		Order:         o,
		EstimatedCost: int64(float64(inputBytes) * multiplier),
		status:        StatusQueued,
	}, nil
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Attempts returns how many times the job has entered StatusRunning.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// transition moves the job to the target state, enforcing the state machine.
// Entering StatusRunning increments the attempt count.
func (j *Job) transition(to Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, allowed := range legalTransitions[j.status] {
		if allowed == to {
			j.status = to
			if to == StatusRunning {
				j.attempts++
			}
			return nil
		}
	}
	return fmt.Errorf("merge: illegal job transition %s → %s for order %s", j.status, to, j.Order.Key())
}

// Run is the immutable record of one succeeded merge. It back-references the
// order that produced it but owns nothing else.
type Run struct {
	Order        order.MergeOrder `json:"order"`
	ArtifactPath string           `json:"artifactPath"`
	WallTime     time.Duration    `json:"wallTime"`
	PeakMemory   int64            `json:"peakMemory,omitempty"`
	Attempts     int              `json:"attempts"`
	FromCache    bool             `json:"fromCache,omitempty"`
}
