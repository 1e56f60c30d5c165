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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"qrdash/internal/api"
	"qrdash/internal/certs"
	"qrdash/internal/files"
	"qrdash/internal/watch"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "regenerate QR files when the registry file changes on disk")
}

func serve(ctx context.Context) error {
	store := registryStore()
	artifacts := files.NewArtifactStore(cfg.OutputDir)

	// Fail early on a malformed registry rather than on the first request.
	if _, err := store.Load(); err != nil {
		return err
	}

	handlers := api.NewHandlers(store, artifacts, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handlers, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLSEnabled() {
		cm := certs.NewCertManager(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		tlsConfig, leaf, err := cm.TLSConfig()
		if err != nil {
			return err
		}
		if cm.IsExpired(leaf) {
			logger.Warn("TLS certificate has expired", zap.Time("not_after", leaf.NotAfter))
		}
		srv.TLSConfig = tlsConfig
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard listening",
			zap.String("addr", cfg.Addr),
			zap.Bool("tls", cfg.TLSEnabled()),
			zap.String("registry", store.Path()),
			zap.String("output_dir", artifacts.Dir()))
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		logger.Info("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	})
	if serveWatch || cfg.Watch {
		w := watch.NewRegistryWatcher(store.Path(), watch.DefaultDebounce, func() error {
			reg, err := store.Load()
			if err != nil {
				return err
			}
			arts, err := artifacts.WriteAll(reg.Entries())
			if err != nil {
				return err
			}
			logger.Info("regenerated QR files", zap.Int("count", len(arts)))
			return nil
		}, logger)
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
