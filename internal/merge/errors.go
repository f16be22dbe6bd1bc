package merge

import "fmt"

// TransientCause narrows a transient failure for diagnostics. The executor
// reports it verbatim after retries are exhausted so that an out-of-memory
// kill is distinguishable from an engine crash or a timeout.
type TransientCause string

const (
	CauseTimeout TransientCause = "timeout"
	CauseOOM     TransientCause = "out-of-memory"
	CauseCrash   TransientCause = "engine-crash"
	CauseIO      TransientCause = "io"
)

// UnschedulableError reports a job whose estimated cost can never fit the
// configured budget. It is terminal: no amount of waiting or retrying helps.
type UnschedulableError struct {
	Cost  int64
	Total int64
}

func (e *UnschedulableError) Error() string {
	return fmt.Sprintf("merge: job unschedulable: estimated cost %d exceeds total budget %d", e.Cost, e.Total)
}

// TransientError wraps a failure worth retrying: the engine timed out, was
// OOM-killed, crashed, or the artifact could not be established.
type TransientError struct {
	Cause TransientCause
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("merge: transient engine failure (%s): %v", e.Cause, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError wraps a deterministic input failure: a malformed order or an
// unparseable source ontology. Retrying cannot change the outcome.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("merge: fatal engine failure: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
