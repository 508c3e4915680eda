package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

const defaultConfigFile = "apigen.yaml"

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample apigen configuration file",
		Long:  "Scaffold a commented apigen configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, out io.Writer) error {
	_ = ctx

	path := strings.TrimSpace(cfg.OutputPath)
	if path == "" {
		path = defaultConfigFile
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(out, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# apigen configuration (YAML)
# Command-line flags override config values; APIGEN_* environment variables
# override both the file and defaults (e.g. APIGEN_SECRET_KEY).

# Output directory.
out: ./client

# Dotted root namespace of the generated code.
namespace: Acme.CloudStack

# Target language to emit (go|python|openapi|typescript).
lang: go

# Descriptor source: a listApis file...
input: ./apis.json
# capabilities: ./capabilities.json

# ...or a live endpoint (remove input when using these).
# endpoint: https://cloud.example.com/client/api
# api-key: YOUR_API_KEY
# secret-key: set APIGEN_SECRET_KEY instead of storing it here
# timeout: 30s
# retries: 3

# Method name filters (regular expressions).
# include: ["^list", "^deploy"]
# exclude: ["^listApis$"]

# Skip methods and fields introduced after this version.
# api-version: 4.18.0

# Spellings for run-together terms, keyed by the lowercase descriptor name.
# name-overrides:
#   vpc: VPC
#   ipaddress: IPAddress

# Add page and pagesize parameters to list methods.
# implicit-paging: true

# Preview planned outputs without writing files.
# dry-run: false

# Overwrite a non-empty output directory.
# force: false

# Show a progress bar while emitting.
# progress: false
`
