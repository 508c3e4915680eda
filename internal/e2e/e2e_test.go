package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	cli "github.com/mark3labs/apigen/internal/cli"
)

// vmResponse is shared by the list and deploy commands.
const vmResponse = `[
	    {"name": "id", "type": "string"},
	    {"name": "created", "type": "date"},
	    {"name": "nic", "type": "set", "response": [
	      {"name": "ipaddress", "type": "string"},
	      {"name": "isdefault", "type": "boolean"}
	    ]},
	    {"name": "tags", "type": "set", "response": [
	      {"name": "key", "type": "string"},
	      {"name": "value", "type": "string"}
	    ]}
	  ]`

var methods = []string{
	`{"name": "listVirtualMachines", "description": "Lists virtual machines", "isasync": false,
	  "params": [
	    {"name": "zoneid", "type": "uuid", "required": false, "description": "the zone"},
	    {"name": "tags", "type": "map", "required": false}
	  ],
	  "response": ` + vmResponse + `}`,
	`{"name": "deployVirtualMachine", "isasync": true, "since": "4.2.0",
	  "params": [
	    {"name": "serviceofferingid", "type": "uuid", "required": true},
	    {"name": "templateid", "type": "uuid", "required": true}
	  ],
	  "response": ` + vmResponse + `}`,
	`{"name": "listZones", "params": [], "response": [
	    {"name": "id", "type": "uuid"},
	    {"name": "name", "type": "string"}
	  ]}`,
}

func writeListing(t *testing.T, order []int) string {
	t.Helper()
	parts := make([]string, 0, len(order))
	for _, i := range order {
		parts = append(parts, methods[i])
	}
	body := `{"listapisresponse": {"count": 3, "api": [` + strings.Join(parts, ",") + `]}}`
	p := filepath.Join(t.TempDir(), "apis.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		list = append(list, rel)
		// hash path + contents to be robust
		_, _ = h.Write([]byte(rel))
		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		_, _ = h.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(list)
	return list, hex.EncodeToString(h.Sum(nil))
}

func generate(t *testing.T, lang string, order []int) (string, []string, string) {
	t.Helper()
	out := t.TempDir()
	runCLI(t, "generate", "--input", writeListing(t, order), "--namespace", "Acme.CloudStack", "--lang", lang, "--out", out, "--force")
	files, sum := digestDir(t, out)
	return out, files, sum
}

func TestE2E_Deterministic(t *testing.T) {
	t.Parallel()
	for _, lang := range []string{"go", "python", "openapi", "typescript"} {
		_, files1, sum1 := generate(t, lang, []int{0, 1, 2})
		_, files2, sum2 := generate(t, lang, []int{0, 1, 2})
		if !slicesEqual(files1, files2) || sum1 != sum2 {
			t.Fatalf("%s: generated outputs differ between runs\nfiles1=%v\nfiles2=%v", lang, files1, files2)
		}
		_, files3, sum3 := generate(t, lang, []int{2, 1, 0})
		if !slicesEqual(files1, files3) || sum1 != sum3 {
			t.Fatalf("%s: output depends on listing order\nfiles1=%v\nfiles3=%v", lang, files1, files3)
		}
	}
}

func TestE2E_GoLayout(t *testing.T) {
	t.Parallel()
	dir, files, _ := generate(t, "go", []int{0, 1, 2})
	for _, want := range []string{
		"apigen.go",
		"doc.go",
		"manifest.json",
		"tag.go",
		"nic.go",
		"virtual_machine.go",
		"zone_response.go",
		"deploy_virtual_machine_request.go",
		"list_virtual_machines_request.go",
		"list_zones_request.go",
	} {
		if !contains(files, want) {
			t.Errorf("missing %s in %v", want, files)
		}
	}
	vm, err := os.ReadFile(filepath.Join(dir, "virtual_machine.go"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(vm), "[]Tag") || !strings.Contains(string(vm), "[]Nic") {
		t.Fatalf("unexpected VirtualMachine:\n%s", vm)
	}

	// Optional: try building if the toolchain is available
	if os.Getenv("APIGEN_E2E_ONLINE") == "1" && haveCmd("go") {
		if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/cloudstack\n\ngo 1.21\n"), 0o644); err != nil {
			t.Fatalf("write go.mod: %v", err)
		}
		if err := runCmdWithTimeout(dir, 2*time.Minute, "go", "vet", "./..."); err != nil {
			t.Fatalf("generated Go does not vet: %v", err)
		}
	}
}

func TestE2E_PythonCompiles(t *testing.T) {
	t.Parallel()
	if os.Getenv("APIGEN_E2E_ONLINE") != "1" || !haveCmd("python3") {
		t.Skip("set APIGEN_E2E_ONLINE=1 with python3 on PATH to compile generated Python")
	}
	dir, _, _ := generate(t, "python", []int{0, 1, 2})
	if err := runCmdWithTimeout(dir, time.Minute, "python3", "-m", "compileall", "-q", "."); err != nil {
		t.Fatalf("generated Python does not compile: %v", err)
	}
}

func haveCmd(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmdWithTimeout(dir string, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &execError{err: err, output: out.String()}
	}
	return nil
}

type execError struct {
	err    error
	output string
}

func (e *execError) Error() string { return e.err.Error() + ": " + e.output }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
