package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhisek/mathprobe/internal/rules"
	"github.com/abhisek/mathprobe/internal/server"
	"github.com/abhisek/mathprobe/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket assessment server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.Addr = v
		}
		if v, _ := cmd.Flags().GetString("static"); v != "" {
			cfg.StaticDir = v
		}
		if off, _ := cmd.Flags().GetBool("no-event-log"); off {
			cfg.EventLog = false
		}

		logger, err := newLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		loader := rules.NewFileLoader(cfg.RulesDir)
		tasks, err := loader.List()
		if err != nil {
			return fmt.Errorf("list rules in %s: %w", cfg.RulesDir, err)
		}
		if len(tasks) == 0 {
			logger.Warn("no rule files found; every session will fail to start", "rules_dir", cfg.RulesDir)
		}

		opts := server.Options{
			Loader:          loader,
			Logger:          logger,
			StaticDir:       cfg.StaticDir,
			DefaultTask:     cfg.DefaultTask,
			DrawingProbe:    cfg.DrawingProbe,
			MaxDecodeErrors: cfg.MaxDecodeErrors,
		}

		if cfg.EventLog {
			dbPath, err := resolveDBPath(cfg)
			if err != nil {
				return fmt.Errorf("resolve DB path: %w", err)
			}
			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			opts.Events = st.EventRepo()
			logger.Info("event log enabled", "db", dbPath)
		}

		srv := server.New(opts)
		httpServer := &http.Server{
			Addr:    cfg.Addr,
			Handler: srv.Handler(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.Addr, "tasks", tasks)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("listen: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down", "active_sessions", srv.ActiveSessions())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown.
		srv.CloseConnections()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MATHPROBE_ADDR)")
	serveCmd.Flags().String("static", "", "Static files directory (overrides MATHPROBE_STATIC_DIR)")
	serveCmd.Flags().Bool("no-event-log", false, "Do not record session events")
}
