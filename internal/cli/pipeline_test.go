package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/apigen/internal/errs"
)

const listingJSON = `{
  "listapisresponse": {
    "count": 3,
    "api": [
      {
        "name": "listFoos",
        "description": "Lists foos",
        "isasync": false,
        "params": [{"name": "zoneid", "type": "uuid", "required": true}],
        "response": [
          {"name": "id", "type": "string"},
          {"name": "tags", "type": "set", "response": [
            {"name": "key", "type": "string"},
            {"name": "value", "type": "string"}
          ]}
        ]
      },
      {
        "name": "deployWidget",
        "isasync": true,
        "params": [],
        "response": [{"name": "jobid", "type": "uuid"}]
      },
      {"name": "brokenThing", "params": "zoneid,name"}
    ]
  }
}`

func writeListing(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "apis.json")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	input := writeListing(t, listingJSON)
	for _, lang := range []string{"go", "python", "openapi", "typescript"} {
		outDir := filepath.Join(t.TempDir(), "out-"+lang)
		stdout, stderr, err := execute(t, "generate", "--input", input, "--namespace", "Acme.CloudStack", "--lang", lang, "--out", outDir, "--dry-run")
		if err != nil {
			t.Fatalf("%s: execute: %v", lang, err)
		}
		if !strings.Contains(stdout, "Planned writes to") || !strings.Contains(stdout, "- manifest.json") {
			t.Fatalf("%s: expected dry-run plan output, got: %s", lang, stdout)
		}
		if !strings.Contains(stdout, "2 processed, 1 skipped of 3 methods") {
			t.Fatalf("%s: expected summary, got: %s", lang, stdout)
		}
		if !strings.Contains(stderr, "skipped method") || !strings.Contains(stderr, "brokenThing") || !strings.Contains(stderr, string(errs.MalformedInput)) {
			t.Fatalf("%s: expected skip warning, got: %s", lang, stderr)
		}
		// Dry-run should not create the directory
		if _, err := os.Stat(outDir); err == nil {
			t.Fatalf("%s: expected no writes on dry-run", lang)
		}
	}
}

func TestGeneratePipeline_WritesGo(t *testing.T) {
	input := writeListing(t, listingJSON)
	outDir := filepath.Join(t.TempDir(), "client")
	stdout, _, err := execute(t, "generate", "--input", input, "--namespace", "Acme.CloudStack", "--out", outDir, "--progress")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, name := range []string{"foo_response.go", "list_foos_request.go", "apigen.go", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(stdout, "2 processed") {
		t.Fatalf("expected summary, got: %s", stdout)
	}

	// A second run into the same directory needs --force.
	_, _, err = execute(t, "generate", "--input", input, "--namespace", "Acme.CloudStack", "--out", outDir)
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected non-empty directory usage error, got %v", err)
	}
	if _, _, err := execute(t, "generate", "--input", input, "--namespace", "Acme.CloudStack", "--out", outDir, "--force"); err != nil {
		t.Fatalf("forced rerun: %v", err)
	}
}

func TestGeneratePipeline_NoMethods(t *testing.T) {
	input := writeListing(t, `{"api": [{"name": "onlyBroken", "response": {"id": "string"}}]}`)
	stdout, _, err := execute(t, "generate", "--input", input, "--namespace", "N", "--out", filepath.Join(t.TempDir(), "o"))
	if err == nil {
		t.Fatalf("expected an error when no method resolves")
	}
	if ExitCode(err) == 0 {
		t.Fatalf("expected non-zero exit code")
	}
	if !strings.Contains(stdout, "0 processed, 1 skipped of 1 methods") {
		t.Fatalf("expected summary, got: %s", stdout)
	}
}

func TestGeneratePipeline_TransportFailure(t *testing.T) {
	_, _, err := execute(t, "generate", "--input", filepath.Join(t.TempDir(), "missing.json"), "--namespace", "N", "--out", filepath.Join(t.TempDir(), "o"))
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if ExitCode(err) != 1 {
		t.Fatalf("exit code: got %d", ExitCode(err))
	}
}
