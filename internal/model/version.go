package model

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mark3labs/apigen/internal/errs"
)

// ParseVersion parses a descriptor version such as "4.2" or "4.18.1.0". Only
// the first three numeric components are significant.
func ParseVersion(raw string) (*semver.Version, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if s == "" {
		return nil, errs.New(errs.InvalidInput, "version is empty")
	}
	if parts := strings.Split(s, "."); len(parts) > 3 {
		s = strings.Join(parts[:3], ".")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "parse version %q", raw)
	}
	return v, nil
}

// introducedAfter reports whether since names a version newer than target.
// Unparseable or missing versions are never filtered.
func introducedAfter(since *semver.Version, target *semver.Version) bool {
	if since == nil || target == nil {
		return false
	}
	return since.GreaterThan(target)
}
