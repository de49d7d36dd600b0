package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP API",
	Long: `Serve exposes the validation engine over HTTP:
  POST /v1/destinations/validate   validate one destination (JSON body)
  GET  /healthz                    liveness check
  GET  /metrics                    Prometheus metrics

Example:
  themecheck serve
  themecheck serve --addr :9090 --log-format json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("similarity", false, "fill missing semantic similarity values with embeddings")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("similarity") {
		on, _ := cmd.Flags().GetBool("similarity")
		viper.Set("similarity.enabled", on)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	m := metrics.New()
	p, err := buildPipeline(cfg, logger, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	router := server.NewRouter(p, m, logger, cfg.Server.MaxBodyBytes)
	srv := server.New(cfg.Server, router.Handler())

	fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", ln.Addr())
	return server.Run(ctx, srv, ln, logger)
}
