package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Engine is the external merge engine. It reads the ordered input artifacts,
// writes a merged artifact to output, and reports success solely through its
// error return; the core never inspects engine internals beyond failure
// classification.
type Engine interface {
	Merge(ctx context.Context, inputs []string, output string) error
}

// Compile-time check.
var _ Engine = (*RobotEngine)(nil)

// RobotEngine shells out to ROBOT (http://robot.obolibrary.org), annotating
// every merged term with its defining ontology so the extractor can recover
// attribution downstream.
type RobotEngine struct {
	// Binary is the robot executable; "robot" on PATH when empty.
	Binary string

	// TrimAxioms additionally removes disjointness axioms and owl:Nothing
	// from the merged artifact, matching the engine's "merge with removes"
	// operating mode.
	TrimAxioms bool
}

// Merge runs `robot merge --annotate-defined-by true` over the ordered
// inputs. Failures are classified into the transient/fatal taxonomy so the
// executor can decide whether a retry is worthwhile.
func (e *RobotEngine) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return &FatalError{Err: errors.New("no input artifacts")}
	}

	args := []string{"merge", "--annotate-defined-by", "true"}
	for _, in := range inputs {
		args = append(args, "--input", in)
	}
	if e.TrimAxioms {
		args = append(args,
			"remove", "--axioms", "disjoint", "--trim", "true", "--preserve-structure", "false",
			"remove", "--term", "owl:Nothing", "--trim", "true", "--preserve-structure", "false",
		)
	}
	args = append(args, "--output", output)

	bin := e.Binary
	if bin == "" {
		bin = "robot"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	return classifyEngineError(ctx, err, stderr.String())
}

// fatalMarkers are stderr substrings that identify deterministic input
// errors: the merge can never succeed on these inputs, in any order.
var fatalMarkers = []string{
	"OWLOntologyCreationException",
	"UnparsableOntologyException",
	"UnloadableImportException",
	"unrecognized option",
	"cannot be parsed",
}

// oomMarkers are stderr substrings emitted by a JVM dying of memory
// exhaustion before the environment gets a chance to kill it.
var oomMarkers = []string{
	"OutOfMemoryError",
	"GC overhead limit exceeded",
}

// classifyEngineError maps a subprocess failure onto the error taxonomy:
// deadline → timeout, kill signal or JVM OOM marker → out-of-memory, known
// input-error marker → fatal, anything else → engine crash (transient).
func classifyEngineError(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TransientError{Cause: CauseTimeout, Err: err}
	}

	for _, marker := range oomMarkers {
		if strings.Contains(stderr, marker) {
			return &TransientError{Cause: CauseOOM, Err: fmt.Errorf("%w: %s", err, firstLine(stderr))}
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGKILL {
			// SIGKILL from the environment is how an OOM kill presents.
			return &TransientError{Cause: CauseOOM, Err: err}
		}
		for _, marker := range fatalMarkers {
			if strings.Contains(stderr, marker) {
				return &FatalError{Err: fmt.Errorf("%w: %s", err, firstLine(stderr))}
			}
		}
		return &TransientError{Cause: CauseCrash, Err: fmt.Errorf("%w: %s", err, firstLine(stderr))}
	}

	// The process never started (missing binary, exec failure).
	return &TransientError{Cause: CauseIO, Err: err}
}

// firstLine trims stderr to its first non-empty line for error messages.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
