package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/aretw0/skillflow/internal/presentation/tui"
	httpadapter "github.com/aretw0/skillflow/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the SkillFlow JSON API, its OpenAPI document and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(cmd.Context()))

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.HTTP.Addr = addr
		}

		handler, err := httpadapter.NewHandler(a.svc,
			httpadapter.WithAllowedOrigins(a.cfg.HTTP.AllowedOrigins...),
			httpadapter.WithMetrics(a.metrics.Handler()),
			httpadapter.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              a.cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.logger.Info("SkillFlow API listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.logger.Info("Shutting down", "timeout", a.cfg.HTTP.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return err
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		a.logger.Info("SkillFlow API stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on; overrides http.addr")
}
