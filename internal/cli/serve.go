package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/factlens/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pipeline over HTTP:
  POST /api/chat       analyze a claim (JSON or streamed messages)
  POST /api/keywords   extract search keywords
  GET  /healthz        liveness
  GET  /metrics        prometheus metrics

Example:
  factlens serve --listen :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, reg := buildPipeline(cfg)
		srv := server.New(cfg, p, reg, logger)

		if cfg.LLM.Provider != "" {
			checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if !p.ProviderAvailable(checkCtx) {
				logger.Warn("completion provider is not reachable; analysis will fall through",
					zap.String("provider", cfg.LLM.Provider))
			}
			cancel()
		}

		logger.Info("starting server",
			zap.String("listen", cfg.Server.Listen),
			zap.Strings("tiers", p.Attempts()),
			zap.Duration("analysis_timeout", cfg.Server.AnalysisTimeout),
		)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().Duration("analysis-timeout", 60*time.Second, "wall-clock ceiling per request")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("server.analysis_timeout", serveCmd.Flags().Lookup("analysis-timeout"))
}
