// Package merge schedules and drives external merge engine invocations under
// a shared memory budget.
package merge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/ontomerge/internal/catalog"
)

// ExecutorConfig tunes retry and timeout behavior for one pipeline run.
type ExecutorConfig struct {
	// MaxRetries is how many times a transient failure is retried before the
	// job is marked failed. The default of 2 yields at most 3 attempts.
	MaxRetries int

	// Timeout bounds a single engine invocation. Zero means no timeout.
	Timeout time.Duration

	// InitialBackoff is the delay before the first retry; each subsequent
	// retry doubles it. Defaults to 30 seconds.
	InitialBackoff time.Duration
}

// DefaultMaxRetries matches the configured default retry policy.
const DefaultMaxRetries = 2

const defaultInitialBackoff = 30 * time.Second

// Executor runs merge jobs: it acquires admission, invokes the engine with a
// timeout, retries transient failures with exponential backoff, and drives
// the job state machine to a terminal state.
type Executor struct {
	engine      Engine
	admission   *Admission
	catalog     *catalog.Catalog
	artifactDir string
	cfg         ExecutorConfig
}

// NewExecutor creates an Executor writing artifacts under artifactDir.
func NewExecutor(engine Engine, admission *Admission, cat *catalog.Catalog, artifactDir string, cfg ExecutorConfig) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	return &Executor{
		engine:      engine,
		admission:   admission,
		catalog:     cat,
		artifactDir: artifactDir,
		cfg:         cfg,
	}
}

// ArtifactPath returns where the merged artifact for the job's order lands.
// The name is derived from the order key, not the completion sequence, so
// concurrent jobs never collide and reruns overwrite their own output.
func (e *Executor) ArtifactPath(j *Job) string {
	sum := sha256.Sum256([]byte(j.Order.Key()))
	return filepath.Join(e.artifactDir, fmt.Sprintf("merged-%s-%s.owl", j.Order.Strategy, hex.EncodeToString(sum[:8])))
}

// Run drives one job to a terminal state. On success it returns the Run
// record; otherwise the returned error carries the taxonomy classification
// (UnschedulableError, TransientError after exhausted retries, FatalError).
// Admission is per attempt: the reservation covers only the engine
// invocation and is released before any backoff sleep, so a retrying job
// never holds budget that queued jobs could use.
func (e *Executor) Run(ctx context.Context, j *Job) (*Run, error) {
	inputs, err := e.inputPaths(j)
	if err != nil {
		_ = j.transition(StatusAborted)
		return nil, &FatalError{Err: err}
	}

	if err := os.MkdirAll(e.artifactDir, 0o755); err != nil {
		_ = j.transition(StatusAborted)
		return nil, &FatalError{Err: fmt.Errorf("artifact dir: %w", err)}
	}

	output := e.ArtifactPath(j)
	start := time.Now()

	for {
		token, err := e.admission.Admit(ctx, j.EstimatedCost)
		if err != nil {
			_ = j.transition(StatusAborted)
			return nil, err
		}

		if err := j.transition(StatusRunning); err != nil {
			token.Release()
			return nil, err
		}

		err = e.invoke(ctx, inputs, output)
		if err == nil {
			if statErr := e.checkArtifact(output); statErr != nil {
				err = statErr
			}
		}
		token.Release()

		if err == nil {
			if err := j.transition(StatusSucceeded); err != nil {
				return nil, err
			}
			return &Run{
				Order:        j.Order,
				ArtifactPath: output,
				WallTime:     time.Since(start),
				Attempts:     j.Attempts(),
			}, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			_ = j.transition(StatusAborted)
			return nil, err
		}

		if j.Attempts() > e.cfg.MaxRetries {
			_ = j.transition(StatusFailed)
			return nil, fmt.Errorf("order %s failed after %d attempts: %w", j.Order.Key(), j.Attempts(), err)
		}

		if err := j.transition(StatusRetryPending); err != nil {
			return nil, err
		}
		if err := e.backoff(ctx, j.Attempts()); err != nil {
			_ = j.transition(StatusFailed)
			return nil, fmt.Errorf("order %s: %w", j.Order.Key(), err)
		}
	}
}

// invoke runs the engine under the configured per-attempt timeout.
func (e *Executor) invoke(ctx context.Context, inputs []string, output string) error {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	return e.engine.Merge(ctx, inputs, output)
}

// checkArtifact verifies the engine actually established a non-empty output.
// A missing or empty artifact after a clean exit is an I/O hiccup worth a
// retry, not a success.
func (e *Executor) checkArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &TransientError{Cause: CauseIO, Err: fmt.Errorf("artifact not established: %w", err)}
	}
	if info.Size() == 0 {
		return &TransientError{Cause: CauseIO, Err: fmt.Errorf("artifact %s is empty", path)}
	}
	return nil
}

func (e *Executor) inputPaths(j *Job) ([]string, error) {
	paths := make([]string, 0, len(j.Order.Sequence))
	for _, id := range j.Order.Sequence {
		ont, ok := e.catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("order %s references unknown ontology %q", j.Order.Key(), id)
		}
		paths = append(paths, ont.LocalPath)
	}
	return paths, nil
}

// backoff sleeps before retry attempt n (1-based over completed attempts),
// doubling the initial delay each time. Context cancellation cuts it short.
func (e *Executor) backoff(ctx context.Context, attempts int) error {
	delay := e.cfg.InitialBackoff << (attempts - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
