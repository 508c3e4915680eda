package errs

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestErrorIsMatchesSentinelForCode(t *testing.T) {
	t.Parallel()
	err := Malformed("listFoo", "params", "oops", "expected a list")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed sentinel, got %v", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed error must not match invalid sentinel")
	}
	if CodeOf(err) != MalformedInput {
		t.Fatalf("code: got %q", CodeOf(err))
	}
	if !Recoverable(err) {
		t.Fatalf("malformed input should be recoverable")
	}
}

func TestErrorMessageCarriesLocationAndValue(t *testing.T) {
	t.Parallel()
	err := Malformed("listFoo", "params", "oops", "expected a list")
	msg := err.Error()
	for _, want := range []string{"listFoo", "params", "expected a list", `"oops"`} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	err := Wrap(TransportError, cause, "fetch %s", "http://x")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if Recoverable(err) {
		t.Fatalf("transport errors are fatal")
	}
	if Wrap(TransportError, nil, "noop") != nil {
		t.Fatalf("wrapping nil must yield nil")
	}
}

func TestHintsSurvive(t *testing.T) {
	t.Parallel()
	err := WithHint(New(ConfigurationError, "missing output dir"), "pass --out")
	hints := Hints(err)
	if len(hints) != 1 || hints[0] != "pass --out" {
		t.Fatalf("hints: got %v", hints)
	}
	if CodeOf(err) != ConfigurationError {
		t.Fatalf("code lost through hint wrapper: %q", CodeOf(err))
	}
}
