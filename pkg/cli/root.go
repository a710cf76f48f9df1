package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/craigrmccown/apollo-cli/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	projectDir     string
	logLevel       string
	logFormat      string
	engineKey      string
	engineEndpoint string

	// logger is configured from the log flags before any command runs.
	logger = logging.Nop()

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apollo",
	Short: "apollo resolves GraphQL project configuration and schemas",
	Long: `apollo loads a GraphQL project's configuration (apollo.config.star,
apollo.config.yaml, apollo.config.json or the "apollo" key of package.json),
composes the schemas it declares and resolves the operation documents bound
to them.

Flags fall back to environment variables: APOLLO_PROJECT_DIR,
APOLLO_LOG_LEVEL, APOLLO_LOG_FORMAT, ENGINE_API_KEY and
APOLLO_ENGINE_ENDPOINT.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Format: logging.ParseFormat(logFormat),
			Output: cmd.ErrOrStderr(),
		})
		slog.SetDefault(logger)
	},
}

// Execute runs the root command until it completes or the process receives
// an interrupt. Errors are printed to stderr and exit with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&projectDir, "project", "p", envOr(EnvProjectDir, "."), "Project folder or config file to load")
	flags.StringVar(&logLevel, "log-level", envOr(EnvLogLevel, "warn"), "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", envOr(EnvLogFormat, "text"), "Log format (text, json)")
	flags.StringVar(&engineKey, "engine-key", os.Getenv(EnvEngineKey), "Registry API key applied to every schema dependency")
	flags.StringVar(&engineEndpoint, "engine-endpoint", os.Getenv(EnvEngineEndpoint), "Schema registry endpoint")
}
