package cli

import (
	"github.com/spf13/cobra"

	"supportagent/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the chat, knowledge base and ticket endpoints over HTTP, plus
Prometheus metrics on /metrics.

Examples:
  supportagent serve
  supportagent serve --host 127.0.0.1 --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c, err := openContainer(ctx, true)
	if err != nil {
		return err
	}
	defer c.Close()

	host, port := cfg.Server.Host, cfg.Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort > 0 {
		port = servePort
	}

	c.Log.Info("server", "starting support agent", map[string]interface{}{
		"model":       cfg.LLM.Model,
		"data_folder": cfg.Index.DataFolder,
		"store":       cfg.Store.Backend,
	})
	return server.New(c).Run(ctx, host, port)
}
