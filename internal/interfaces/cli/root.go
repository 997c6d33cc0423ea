// Package cli implements the lexcase command tree: one-shot analysis
// commands, the HTTP server, the Kafka worker and maintenance tasks.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	Server       string
	Token        string
}

// AppFactory builds the service graph for a command.
type AppFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.App, error)

// AnalysisRequester enqueues analysis requests for the worker.
type AnalysisRequester interface {
	RequestAnalysis(ctx context.Context, req kafka.AnalysisRequestedPayload) error
	Close() error
}

// RequesterFactory builds an AnalysisRequester from the kafka settings.
type RequesterFactory func(cfg config.KafkaConfig, log logging.Logger) (AnalysisRequester, error)

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	ConfigPath   string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	// Server is the base URL of a running API server; when set, the
	// analysis commands call it instead of opening local backends.
	Server string
	// Token is the bearer token sent to Server.
	Token string

	newApp       AppFactory
	newRequester RequesterFactory
}

// OpenApp connects the backends selected by the configuration, or the
// remote API when --server is set.
func (c *CLIContext) OpenApp(ctx context.Context) (*bootstrap.App, error) {
	if c.Server != "" {
		return openRemoteApp(c)
	}
	return c.newApp(ctx, c.Config, c.Logger)
}

// RootOption customises NewRootCommand.
type RootOption func(*rootDeps)

type rootDeps struct {
	newApp       AppFactory
	newRequester RequesterFactory
	loadConfig   func(opts *RootOptions) (*config.Config, error)
}

// WithAppFactory replaces bootstrap.New.
func WithAppFactory(f AppFactory) RootOption {
	return func(d *rootDeps) { d.newApp = f }
}

// WithRequesterFactory replaces the kafka producer used by enqueue.
func WithRequesterFactory(f RequesterFactory) RootOption {
	return func(d *rootDeps) { d.newRequester = f }
}

// WithConfig skips config discovery and uses cfg.
func WithConfig(cfg *config.Config) RootOption {
	return func(d *rootDeps) {
		d.loadConfig = func(*RootOptions) (*config.Config, error) { return cfg, nil }
	}
}

func defaultAppFactory(ctx context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.App, error) {
	return bootstrap.New(ctx, cfg, log)
}

func defaultRequesterFactory(cfg config.KafkaConfig, log logging.Logger) (AnalysisRequester, error) {
	p, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands.
func NewRootCommand(options ...RootOption) *cobra.Command {
	opts := &RootOptions{}
	deps := &rootDeps{
		newApp:       defaultAppFactory,
		newRequester: defaultRequesterFactory,
		loadConfig:   initConfig,
	}
	for _, o := range options {
		o(deps)
	}

	cmd := &cobra.Command{
		Use:     "lexcase",
		Short:   "LexCase-Intelligence CLI: playbook-driven legal case assessment",
		Long:    "LexCase-Intelligence merges per-document analyses, ranks research material and\nevaluates case playbooks to produce a cached strength assessment for each case.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./lexcase.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "timeout for one-shot commands")
	pf.StringVar(&opts.Server, "server", os.Getenv("LEXCASE_SERVER"), "API server URL; analysis commands run remotely when set")
	pf.StringVar(&opts.Token, "token", os.Getenv("LEXCASE_TOKEN"), "bearer token for --server")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newEvaluateCmd(),
		newRegenerateCmd(),
		newStatsCmd(),
		newServeCmd(),
		newWorkerCmd(),
		newEnqueueCmd(),
		newCorpusCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun loads config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps *rootDeps) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q; expected text|json|table", opts.OutputFormat))
	}

	cfg, err := deps.loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	if opts.NoColor {
		color.NoColor = true
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		ConfigPath:   opts.ConfigPath,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		Server:       opts.Server,
		Token:        opts.Token,
		newApp:       deps.newApp,
		newRequester: deps.newRequester,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./lexcase.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".lexcase", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/lexcase/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			opts.ConfigPath = p
			return config.Load(p)
		}
	}

	// No config file: environment over defaults.
	return config.LoadFromEnv()
}

// initLogger creates a logger that writes to stderr so stdout stays
// reserved for command output.
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}

	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Log.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// withTimeout bounds a one-shot command by --timeout.
func withTimeout(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// tableProvider is implemented by results that can render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printText outputs data as a simple string representation to stdout.
func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprint(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table if it implements tableProvider,
// otherwise falls back to text.
func printTable(cmd *cobra.Command, data interface{}) error {
	tp, ok := data.(tableProvider)
	if !ok {
		return printText(cmd, data)
	}
	fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
	return nil
}

// FormatTable renders headers and rows with tablewriter.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.Header(headers)
	for _, row := range rows {
		_ = table.Append(row)
	}
	_ = table.Render()
	return sb.String()
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

//Personal.AI order the ending
