package emitter

import (
	"os"
	"path/filepath"

	"github.com/mark3labs/apigen/internal/errs"
)

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return errs.Wrap(errs.ConfigurationError, err, "resolve output directory")
	}
	if st, err := os.Stat(abs); err == nil {
		if !st.IsDir() {
			return errs.New(errs.ConfigurationError, "output path %q is not a directory", abs)
		}
		if !force {
			if entries, rerr := os.ReadDir(abs); rerr == nil && len(entries) > 0 {
				return errs.WithHint(
					errs.New(errs.ConfigurationError, "output directory %q is not empty", abs),
					"use --force to overwrite")
			}
		}
	}
	for _, rel := range sortedKeys(files) {
		p := filepath.Join(abs, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "mkdir for %s", rel)
		}
		if err := writeAtomic(p, files[rel]); err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "write %s", rel)
		}
	}
	return nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over p.
func writeAtomic(p string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, p); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
