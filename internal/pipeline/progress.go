package pipeline

import "fmt"

// Phase identifies where in the analysis a progress event originated.
type Phase string

const (
	PhasePlanning    Phase = "planning"
	PhaseMerging     Phase = "merging"
	PhaseExtracting  Phase = "extracting"
	PhaseComparing   Phase = "comparing"
	PhaseAggregating Phase = "aggregating"
)

// ProgressStatus is the state of one order within a phase.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressCached   ProgressStatus = "cached"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted to the user during an analysis run.
type ProgressEvent struct {
	Phase    Phase
	OrderKey string
	Status   ProgressStatus
	Message  string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.OrderKey)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.OrderKey)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", event.OrderKey)
	case ProgressCached:
		return fmt.Sprintf("  ✓ %s (cached)", event.OrderKey)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.OrderKey, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.OrderKey)
	}
}
