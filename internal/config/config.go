// Package config resolves generate options from defaults, an optional config
// file, APIGEN_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

// EnvPrefix is prepended to upper-cased keys, e.g. APIGEN_API_KEY.
const EnvPrefix = "APIGEN"

// Languages accepted by --lang.
var Languages = []string{"go", "python", "openapi", "typescript"}

var namespaceRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Config captures every input of the generate command after merging.
type Config struct {
	Out            string            `mapstructure:"out"`
	Namespace      string            `mapstructure:"namespace"`
	Lang           string            `mapstructure:"lang"`
	Input          string            `mapstructure:"input"`
	Capabilities   string            `mapstructure:"capabilities"`
	Endpoint       string            `mapstructure:"endpoint"`
	APIKey         string            `mapstructure:"api-key"`
	SecretKey      string            `mapstructure:"secret-key"`
	Include        []string          `mapstructure:"include"`
	Exclude        []string          `mapstructure:"exclude"`
	APIVersion     string            `mapstructure:"api-version"`
	NameOverrides  map[string]string `mapstructure:"name-overrides"`
	ImplicitPaging bool              `mapstructure:"implicit-paging"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	Retries        int               `mapstructure:"retries"`
	DryRun         bool              `mapstructure:"dry-run"`
	Force          bool              `mapstructure:"force"`
	Progress       bool              `mapstructure:"progress"`
	Verbosity      int               `mapstructure:"verbosity"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

var defaults = map[string]any{
	"out":             "",
	"namespace":       "",
	"lang":            "go",
	"input":           "",
	"capabilities":    "",
	"endpoint":        "",
	"api-key":         "",
	"secret-key":      "",
	"include":         []string{},
	"exclude":         []string{},
	"api-version":     "",
	"name-overrides":  map[string]string{},
	"implicit-paging": true,
	"timeout":         30 * time.Second,
	"retries":         3,
	"dry-run":         false,
	"force":           false,
	"progress":        false,
	"verbosity":       0,
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"out":             "out",
	"namespace":       "namespace",
	"lang":            "lang",
	"input":           "input",
	"capabilities":    "capabilities",
	"endpoint":        "endpoint",
	"api-key":         "api-key",
	"secret-key":      "secret-key",
	"include":         "include",
	"exclude":         "exclude",
	"api-version":     "api-version",
	"implicit-paging": "implicit-paging",
	"timeout":         "timeout",
	"retries":         "retries",
	"dry-run":         "dry-run",
	"force":           "force",
	"progress":        "progress",
	"verbosity":       "verbose",
}

// Load merges the sources and normalizes the result. It does not validate;
// call Validate before use. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errs.Wrap(errs.ConfigurationError, err, "bind flag --%s", name)
				}
			}
		}
	}

	file = strings.TrimSpace(file)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ConfigurationError, err, "read config file %q", file)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, errs.WithHint(
			errs.Wrap(errs.ConfigurationError, err, "decode configuration"),
			"keys are kebab-case, e.g. api-key, dry-run, name-overrides",
		)
	}
	cfg.File = file
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Out = strings.TrimSpace(c.Out)
	c.Namespace = strings.TrimSpace(c.Namespace)
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	c.Input = strings.TrimSpace(c.Input)
	c.Capabilities = strings.TrimSpace(c.Capabilities)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.APIVersion = strings.TrimSpace(c.APIVersion)
	c.Include = sanitizePatterns(c.Include)
	c.Exclude = sanitizePatterns(c.Exclude)
}

// Validate reports the first problem as an errs.ConfigurationError.
func (c *Config) Validate() error {
	if c.Out == "" {
		return errs.WithHint(errs.New(errs.ConfigurationError, "output directory is required"), "set --out or out: in the config file")
	}
	if !namespaceRe.MatchString(c.Namespace) {
		return errs.WithHint(
			errs.New(errs.ConfigurationError, "namespace %q is not a dotted identifier", c.Namespace),
			"use something like Acme.CloudStack",
		)
	}
	switch {
	case c.Input != "" && c.Endpoint != "":
		return errs.New(errs.ConfigurationError, "input and endpoint are mutually exclusive")
	case c.Input == "" && c.Endpoint == "":
		return errs.WithHint(errs.New(errs.ConfigurationError, "no descriptor source"), "set --input FILE or --endpoint URL with --api-key and --secret-key")
	case c.Endpoint != "" && (c.APIKey == "" || c.SecretKey == ""):
		return errs.New(errs.ConfigurationError, "endpoint requires both an api key and a secret key")
	}
	if !c.knownLang() {
		return errs.New(errs.ConfigurationError, "unsupported lang %q (allowed: %s)", c.Lang, strings.Join(Languages, ", "))
	}
	if c.APIVersion != "" {
		if _, err := model.ParseVersion(c.APIVersion); err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "api-version")
		}
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if _, err := regexp.Compile(p); err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "pattern %q", p)
		}
	}
	if overlap := intersect(c.Include, c.Exclude); len(overlap) > 0 {
		return errs.New(errs.ConfigurationError, "include/exclude patterns overlap: %s", strings.Join(overlap, ", "))
	}
	if c.Timeout <= 0 {
		return errs.New(errs.ConfigurationError, "timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 1 {
		return errs.New(errs.ConfigurationError, "retries must be at least 1, got %d", c.Retries)
	}
	return nil
}

func (c *Config) knownLang() bool {
	for _, l := range Languages {
		if c.Lang == l {
			return true
		}
	}
	return false
}

// BuildOptions translates the configuration into model build options.
func (c *Config) BuildOptions() []model.BuildOption {
	opts := []model.BuildOption{
		model.WithIncludePatterns(c.Include),
		model.WithExcludePatterns(c.Exclude),
		model.WithImplicitPaging(c.ImplicitPaging),
	}
	if v, err := model.ParseVersion(c.APIVersion); err == nil {
		opts = append(opts, model.WithAPIVersion(v))
	}
	if len(c.NameOverrides) > 0 {
		opts = append(opts, model.WithNameOverrides(c.NameOverrides))
	}
	return opts
}

func sanitizePatterns(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
