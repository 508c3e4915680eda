package cli

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/apigen/internal/errs"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// asUsageError keeps cause reachable through errors.Is while printing its
// hints under the message.
func asUsageError(cause error) error {
	msg := cause.Error()
	for _, h := range errs.Hints(cause) {
		msg += "\nHint: " + h
	}
	return usageError{msg: msg, cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Unwrap() error { return e.cause }

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// ExitCode maps a command error to a process exit status: 0 on success, 2 for
// usage and configuration problems, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, errs.ErrConfiguration):
		return 2
	default:
		return 1
	}
}

// Describe renders err with its hints for the terminal.
func Describe(err error) string {
	if errors.Is(err, ErrUsage) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, h := range errs.Hints(err) {
		b.WriteString("\nHint: " + h)
	}
	return b.String()
}
