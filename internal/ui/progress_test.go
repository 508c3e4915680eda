package ui

import (
	"bytes"
	"testing"

	"github.com/mark3labs/apigen/internal/emitter"
)

func TestProgress_Disabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := NewProgress(&buf, PhaseEmitting, 2, false)
	p.OnUnit(emitter.Unit{Path: "a.go"})
	p.OnUnit(emitter.Unit{Path: "b.go"})
	if err := p.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if p.Done() != 2 {
		t.Fatalf("expected 2 units, got %d", p.Done())
	}
	if buf.Len() != 0 {
		t.Fatalf("disabled progress wrote %q", buf.String())
	}
}

func TestProgress_Enabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := NewProgress(&buf, PhaseEmitting, 1, true)
	p.OnUnit(emitter.Unit{Path: "a.go"})
	if p.Done() != 1 {
		t.Fatalf("expected 1 unit, got %d", p.Done())
	}
	if buf.Len() == 0 {
		t.Fatalf("expected bar output")
	}
}
