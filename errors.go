package solve

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// ResolverError wraps a failure from the Resolver collaborator (network,
// manifest parse, or "no such package") with the requirement being resolved
// when it happened.
type ResolverError struct {
	Req   Req
	cause error
}

func newResolverError(req Req, cause error) *ResolverError {
	return &ResolverError{Req: req, cause: errors.Wrapf(cause, "resolving request: %s", req)}
}

func (e *ResolverError) Error() string { return e.cause.Error() }
func (e *ResolverError) Unwrap() error { return e.cause }

// ProcessError wraps a failure of the external solver subprocess: a nonzero
// exit that the documented "unsatisfiable" convention doesn't account for, a
// timeout, or output that couldn't be parsed and carried no diagnostic to
// explain.
type ProcessError struct {
	cause error
}

func newProcessError(cause error) *ProcessError {
	return &ProcessError{cause: errors.Wrap(cause, "external solver process")}
}

func (e *ProcessError) Error() string { return e.cause.Error() }
func (e *ProcessError) Unwrap() error { return e.cause }

// ConfigError is returned at solver construction, e.g. when the configured
// solver executable cannot be found.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// InternalError indicates a broken invariant was observed while
// reconstructing an explanation. It should never occur in normal operation;
// seeing one means the diagnostic-to-universe mapping is inconsistent.
type InternalError struct {
	msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.msg }

// UnsatError is returned when the external solver reports the problem is
// unsatisfiable. It carries the synthesized Explanation; Error() renders a
// human-readable multi-reason message, while Explanation() gives callers
// structured access.
type UnsatError struct {
	explanation Explanation
}

func newUnsatError(e Explanation) *UnsatError {
	return &UnsatError{explanation: e}
}

// Explanation returns the structured list of reasons the solve failed.
func (e *UnsatError) Explanation() Explanation { return e.explanation }

func (e *UnsatError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "no solution satisfies the given constraints (%d reason(s)):", len(e.explanation))
	for _, r := range e.explanation {
		fmt.Fprintf(&buf, "\n  - %s", r.String())
	}
	return buf.String()
}
