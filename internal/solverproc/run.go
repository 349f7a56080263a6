// Package solverproc shells out to the external PBO/SAT CUDF solver and
// manages the temp file the document is handed through. It is the one place
// in this module that touches os/exec.
package solverproc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// Strategy is one of the two fixed optimisation criterion strings this
// solver ever passes to the external process.
type Strategy string

const (
	StrategyTrendy          Strategy = "-removed,-notuptodate,-new"
	StrategyMinimalAddition Strategy = "-removed,-changed,-notuptodate"
)

// Result is the raw outcome of one external solver invocation.
type Result struct {
	// Unsatisfiable is true when the process exited with the documented
	// "unsatisfiable" status.
	Unsatisfiable bool
	Stdout        []byte
}

// Runner invokes the external solver over a CUDF document and returns its
// raw result. Production code uses ExecRunner; tests inject a fake that
// skips the subprocess entirely.
type Runner interface {
	Run(ctx context.Context, document []byte, strategy Strategy, timeoutSeconds int) (Result, error)
}

// ExecRunner invokes <Command> --strategy=<criterion> --timeout=<seconds>
// <tmpfile>, writing document to a scoped temp file that is removed on
// every exit path, including cancellation.
type ExecRunner struct {
	Command string
}

// LookPath verifies Command resolves to an executable, the check the
// ConfigError in package solve performs at construction time.
func (r ExecRunner) LookPath() error {
	_, err := exec.LookPath(r.Command)
	return err
}

func (r ExecRunner) Run(ctx context.Context, document []byte, strategy Strategy, timeoutSeconds int) (Result, error) {
	f, err := os.CreateTemp("", "cudf-*.cudf")
	if err != nil {
		return Result{}, errors.Wrap(err, "creating CUDF temp file")
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(document); err != nil {
		f.Close()
		return Result{}, errors.Wrap(err, "writing CUDF document")
	}
	if err := f.Close(); err != nil {
		return Result{}, errors.Wrap(err, "closing CUDF temp file")
	}

	cmd := exec.CommandContext(ctx, r.Command,
		"--strategy="+string(strategy),
		"--timeout="+strconv.Itoa(timeoutSeconds),
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Result{}, errors.Wrap(ctx.Err(), "external solver timed out or was cancelled")
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); ok {
			// Documented convention: nonzero exit means unsatisfiable.
			return Result{Unsatisfiable: true, Stdout: stdout.Bytes()}, nil
		}
		return Result{}, errors.Wrapf(runErr, "running external solver: %s", stderr.String())
	}

	return Result{Stdout: stdout.Bytes()}, nil
}
