package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supportagent/config"
	"supportagent/internal/bootstrap"
	"supportagent/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "supportagent",
	Short: "Customer support assistant grounded in a document knowledge base",
	Long: `supportagent answers customer questions with a language model, grounding
each reply in passages retrieved from an indexed knowledge base and, when
given, in the customer's support ticket.

Example usage:
  supportagent ingest --clear              # Index the data folder from scratch
  supportagent query -q "reset password"   # Search the knowledge base
  supportagent chat --ticket TICKET-001    # Talk to the assistant
  supportagent serve                       # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./support.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newLogger logs to the configured file, and to stderr for the server or
// when --verbose is set.
func newLogger(console bool) logger.ILogger {
	return logger.NewZapLogger(logger.Options{
		FilePath: cfg.Logging.File,
		Level:    cfg.Logging.Level,
		Console:  console || verbose,
		JSON:     cfg.Logging.JSON,
	})
}

// openContainer wires the components for one command. Callers must Close it.
func openContainer(ctx context.Context, console bool) (*bootstrap.Container, error) {
	c, err := bootstrap.NewContainer(ctx, cfg, newLogger(console))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
