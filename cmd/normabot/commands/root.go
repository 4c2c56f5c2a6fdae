package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/cli"
)

const appName = "normabot"

var (
	cfgFile     string
	contextName string
	outputFile  string
	inputFile   string
	outputJSON  bool
	outputQuery string
	verbose     bool

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "normabot",
	Short: "NormaComex regulatory assistant",
	Long: `NormaBot - Colombian customs, exchange, tax and foreign-trade regulation
at your fingertips.

  - Talk to the assistant in real time over your microphone and speakers
  - Chat with it in text
  - Browse, search, export and share the regulatory catalog

Configuration is stored in ~/.normacomex/normabot/ and supports multiple
contexts, similar to kubectl's context management.

Examples:
  # Set up a context
  normabot config add-context prod --api-key YOUR_GEMINI_KEY

  # Start a voice call in English
  normabot call --lang en

  # Search the catalog
  normabot norms search "zonas francas" --category Aduanera
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command returns the root command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.normacomex/normabot/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input request file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVarP(&outputQuery, "query", "q", "", "jq expression applied to the output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(normsCmd)
	rootCmd.AddCommand(devicesCmd)
}

func initConfig() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s config: %v\n", appName, err)
	}
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext returns the context selected by -c, the current context, or
// one built from $GEMINI_API_KEY.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(contextName)
}

// optionalContext is getContext for commands that work without
// credentials; it returns an empty context when none resolves.
func optionalContext() *cli.Context {
	ctx, err := getContext()
	if err != nil {
		printVerbose("no context: %v", err)
		return &cli.Context{}
	}
	return ctx
}

func outputResult(result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
		Query:  outputQuery,
	})
}

func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
