package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	t.Parallel()
	cases := map[int]zapcore.Level{
		-1: zapcore.WarnLevel,
		0:  zapcore.WarnLevel,
		1:  zapcore.InfoLevel,
		2:  zapcore.DebugLevel,
		5:  zapcore.DebugLevel,
	}
	for v, want := range cases {
		if got := VerbosityToLevel(v); got != want {
			t.Errorf("verbosity %d: got %v want %v", v, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := New(&buf, VerbosityUser)
	log.Infow("hidden")
	log.Warnw("skipped method", FieldMethod, "listFoo")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at user verbosity: %s", out)
	}
	if !strings.Contains(out, "skipped method") || !strings.Contains(out, "listFoo") {
		t.Fatalf("warning missing: %s", out)
	}
}
