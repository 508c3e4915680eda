package descriptor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/apigen/internal/errs"
)

// FileSource reads a static listApis snapshot and, optionally, a
// listCapabilities snapshot. JSON and YAML are both accepted.
type FileSource struct {
	Path             string
	CapabilitiesPath string
}

// NewFileSource returns a source reading the given snapshot files.
// capabilitiesPath may be empty.
func NewFileSource(path, capabilitiesPath string) *FileSource {
	return &FileSource{Path: strings.TrimSpace(path), CapabilitiesPath: strings.TrimSpace(capabilitiesPath)}
}

func (s *FileSource) ListMethods(ctx context.Context) ([]Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := readDocument(s.Path)
	if err != nil {
		return nil, err
	}
	return extractAPIs(doc, s.Path)
}

// ListCapabilities returns empty capabilities when no capabilities file is set.
func (s *FileSource) ListCapabilities(ctx context.Context) (*Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.CapabilitiesPath == "" {
		return &Capabilities{}, nil
	}
	doc, err := readDocument(s.CapabilitiesPath)
	if err != nil {
		return nil, err
	}
	return extractCapabilities(doc, s.CapabilitiesPath)
}

func readDocument(path string) (any, error) {
	if path == "" {
		return nil, errs.New(errs.ConfigurationError, "descriptor file path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(errs.TransportError, err, "resolve %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errs.Wrap(errs.TransportError, err, "read %s", abs)
	}
	return decodeDocument(data, abs)
}

// decodeDocument picks the decoder from the extension and falls back to YAML
// for anything that does not parse as JSON.
func decodeDocument(data []byte, location string) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errs.New(errs.TransportError, "%s: empty body", location)
	}
	ext := strings.ToLower(filepath.Ext(location))
	var doc any
	if ext != ".yaml" && ext != ".yml" {
		jerr := json.Unmarshal(data, &doc)
		if jerr == nil {
			return doc, nil
		}
		if ext == ".json" {
			return nil, errs.Wrap(errs.TransportError, jerr, "%s: not valid JSON", location)
		}
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.TransportError, err, "%s: not valid JSON or YAML", location)
	}
	return doc, nil
}
