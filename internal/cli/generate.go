package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark3labs/apigen/internal/config"
	"github.com/mark3labs/apigen/internal/descriptor"
	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/emitter/goemitter"
	"github.com/mark3labs/apigen/internal/emitter/npmemitter"
	"github.com/mark3labs/apigen/internal/emitter/oasemitter"
	"github.com/mark3labs/apigen/internal/emitter/pyemitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/logger"
	"github.com/mark3labs/apigen/internal/model"
	"github.com/mark3labs/apigen/internal/ui"
)

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a typed client model from API descriptors",
		Long: "Generate a typed client model from a listApis descriptor file or a live endpoint. " +
			"Options can be provided via flags, APIGEN_* environment variables, config files, or defaults.",
		Example: strings.TrimSpace(`  apigen generate --input apis.json --namespace Acme.CloudStack --out ./client
  apigen generate --endpoint https://cloud.example.com/client/api --api-key KEY --secret-key SECRET --namespace Acme.CloudStack --lang python --out ./py
  apigen --config apigen.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("out", "", "Output directory")
	flags.String("namespace", "", "Dotted root namespace of the generated code, e.g. Acme.CloudStack")
	flags.String("lang", "go", "Target language to emit ("+strings.Join(config.Languages, "|")+")")
	flags.String("input", "", "Path to a listApis descriptor file (JSON or YAML)")
	flags.String("capabilities", "", "Path to a listCapabilities file used with --input")
	flags.String("endpoint", "", "API endpoint URL to fetch descriptors from")
	flags.String("api-key", "", "API key for --endpoint")
	flags.String("secret-key", "", "Secret key for --endpoint (prefer APIGEN_SECRET_KEY)")
	flags.StringSlice("include", nil, "Only generate methods matching these regular expressions")
	flags.StringSlice("exclude", nil, "Skip methods matching these regular expressions")
	flags.String("api-version", "", "Skip methods and fields introduced after this version")
	flags.Bool("implicit-paging", true, "Add page and pagesize parameters to list methods")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout per request")
	flags.Int("retries", 3, "Attempts per HTTP request")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")
	flags.Bool("progress", false, "Show a progress bar while emitting")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, asUsageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, asUsageError(err)
	}
	return cfg, nil
}

func runGenerate(ctx context.Context, cfg *config.Config, out, errOut io.Writer) error {
	log := logger.New(errOut, cfg.Verbosity)
	defer func() { _ = log.Sync() }()

	// 1) Fetch descriptors
	src, err := newSource(cfg)
	if err != nil {
		return asUsageError(err)
	}
	log.Infow("fetching descriptors", logger.FieldSource, sourceName(cfg))
	raws, err := src.ListMethods(ctx)
	if err != nil {
		return err
	}
	apiVersion := cfg.APIVersion
	caps, err := src.ListCapabilities(ctx)
	switch {
	case err != nil:
		log.Warnw("capabilities unavailable", logger.FieldError, err)
	case apiVersion == "":
		apiVersion = caps.Version
	}

	// 2) Compile the model
	res, err := model.Build(ctx, raws, cfg.BuildOptions()...)
	if err != nil {
		return err
	}
	logSkips(log, res.Skipped)
	log.Infow("compiled model", logger.FieldCount, res.Processed(), "objects", res.Graph.Len())
	if res.Processed() == 0 {
		fmt.Fprintln(out, res.Summary())
		return errs.New(errs.InvalidInput, "no methods resolved from %s", sourceName(cfg))
	}

	// 3) Emit
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	r := newRenderer(cfg.Lang, cfg.Namespace)
	progress := ui.NewProgress(errOut, ui.PhaseEmitting, res.Processed()+res.Graph.Len(), cfg.Progress)
	result, err := emitter.Emit(ctx, r, res.Methods, res.Graph, emitter.Options{
		OutDir: cfg.Out,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
		Info:   emitter.Info{Namespace: cfg.Namespace, APIVersion: apiVersion},
		OnUnit: progress.OnUnit,
		Logger: log.With(logger.FieldLang, cfg.Lang),
	})
	_ = progress.Finish()
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		printPlan(out, absOut, result.Planned)
	}
	fmt.Fprintln(out, res.Summary())
	return nil
}

func newSource(cfg *config.Config) (descriptor.Source, error) {
	if cfg.Input != "" {
		return descriptor.NewFileSource(cfg.Input, cfg.Capabilities), nil
	}
	src, err := descriptor.NewHTTPSource(cfg.Endpoint, cfg.APIKey, descriptor.HMACSigner{Secret: cfg.SecretKey},
		descriptor.WithHTTPTimeout(cfg.Timeout),
		descriptor.WithMaxRetries(cfg.Retries),
	)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func sourceName(cfg *config.Config) string {
	if cfg.Input != "" {
		return cfg.Input
	}
	return cfg.Endpoint
}

func newRenderer(lang, namespace string) emitter.Renderer {
	switch lang {
	case "python":
		return pyemitter.New(namespace)
	case "openapi":
		return oasemitter.New()
	case "typescript":
		return npmemitter.New(namespace)
	default:
		return goemitter.New(namespace)
	}
}

func logSkips(log *zap.SugaredLogger, skipped []model.Skip) {
	for _, s := range skipped {
		log.Warnw("skipped method",
			logger.FieldMethod, s.Method,
			logger.FieldErrorCode, string(s.Code),
			logger.FieldError, s.Reason(),
		)
	}
}

func printPlan(w io.Writer, outDir string, planned []emitter.PlannedFile) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(w, "- %s\n", p.RelPath)
	}
}

// wrapOutputError turns output directory problems into usage errors.
func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, errs.ErrConfiguration) {
		return asUsageError(errors.Wrapf(err, "output error for %s", outDir))
	}
	return err
}
