package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/togglr/togglr-admin/internal/metrics"
)

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve dashboard counts as Prometheus metrics",
	Long: `Poll the dashboard endpoint and serve its counts, and metrics of the API
client itself, for Prometheus. Uses the stored session.`,
	RunE: runExporter,
}

var exporterListen string

func init() {
	exporterCmd.Flags().StringVar(&exporterListen, "listen", "", "listen address (default from config)")
	rootCmd.AddCommand(exporterCmd)
}

func runExporter(cmd *cobra.Command, args []string) error {
	m := metrics.New()
	transport := metrics.NewTransport(nil, m, "")

	a, err := newApp(cmd, appOptions{transport: transport})
	if err != nil {
		return err
	}
	defer a.Close()

	if u, err := url.Parse(a.cfg.API.BaseURL); err == nil {
		transport.BasePath = strings.TrimRight(u.Path, "/")
	}

	if _, err := a.requireSession(false); err != nil {
		return err
	}

	addr := a.cfg.Exporter.ListenAddr
	if exporterListen != "" {
		addr = exporterListen
	}

	collector := metrics.NewCollector(m, a.client, a.cfg.Exporter.Interval, a.logger)
	srv := metrics.NewServer(m, addr, a.cfg.Exporter.Path, a.cfg.Exporter.AllowedIPs, collector.Up, a.logger)
	srv.TrustProxies(a.cfg.Exporter.TrustedProxies)

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			a.logger.Info("shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	collector.Start(gctx)
	defer collector.Stop()

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
