package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/config"
	"github.com/ziadkadry99/auto-assign/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the assignment and escalation HTTP API",
	Long: `Starts the autoassign REST API with the SLA monitor running in the
background. Open assignments are swept on the configured interval and
escalated when they breach their response or progress timeouts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := server.New(server.Config{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		}, logger.Named("http"))
		s.registerRoutes(srv.Router())

		if cfg.Monitor.Enabled {
			go s.monitor.Run(ctx)
		}

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
		}()

		fmt.Fprintf(os.Stderr, "autoassign server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Storage: %s", cfg.Storage.Driver)
		if cfg.Storage.Driver == config.StorageSQLite {
			fmt.Fprintf(os.Stderr, " (%s)", cfg.Storage.Path)
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "  Teams: %d\n", len(s.matrix.Teams()))
		if cfg.Monitor.Enabled {
			fmt.Fprintf(os.Stderr, "  SLA monitor: every %s\n", cfg.Monitor.Interval)
		}

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides the config file)")
	rootCmd.AddCommand(serverCmd)
}
