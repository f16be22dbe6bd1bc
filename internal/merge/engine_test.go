package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := classifyEngineError(ctx, errors.New("signal: killed"), "")
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, CauseTimeout, transient.Cause)
}

func TestClassifyJVMOOM(t *testing.T) {
	stderr := "Exception in thread \"main\" java.lang.OutOfMemoryError: Java heap space\n\tat org.obolibrary..."
	err := classifyEngineError(context.Background(), errors.New("exit status 1"), stderr)

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, CauseOOM, transient.Cause)
}

func TestClassifyExecFailureAsIO(t *testing.T) {
	// A non-ExitError (e.g. binary not found) means the engine never ran.
	err := classifyEngineError(context.Background(), errors.New(`exec: "robot": executable file not found in $PATH`), "")

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, CauseIO, transient.Cause)
}

func TestRobotEngineRejectsEmptyInputs(t *testing.T) {
	e := &RobotEngine{}
	err := e.Merge(context.Background(), nil, "/tmp/out.owl")

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "boom", firstLine("\n\n  boom  \nmore"))
	assert.Equal(t, "", firstLine("\n \n"))
}

func TestErrorTaxonomyMessages(t *testing.T) {
	unsched := &UnschedulableError{Cost: 500, Total: 100}
	assert.Contains(t, unsched.Error(), "unschedulable")

	transient := &TransientError{Cause: CauseOOM, Err: errors.New("killed")}
	assert.Contains(t, transient.Error(), "out-of-memory")
	assert.Equal(t, "killed", errors.Unwrap(transient).Error())

	fatal := &FatalError{Err: errors.New("unparseable")}
	assert.Contains(t, fatal.Error(), "fatal")
	assert.Equal(t, "unparseable", errors.Unwrap(fatal).Error())
}
