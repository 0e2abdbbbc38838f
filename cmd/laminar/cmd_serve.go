// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/laminar/services/laminar"
	"github.com/AleutianAI/laminar/services/laminar/config"
	"github.com/AleutianAI/laminar/services/laminar/scan"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			logger := a.newLogger()

			shutdown, err := a.setupTracing()
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			scanner, cleanup, err := a.buildScanner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           a.newRouter(scanner, cfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting laminar server", slog.String("address", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down laminar server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("serve: shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// newRouter builds the gin engine: API routes under /v1 and Prometheus
// metrics at /metrics.
func (a *app) newRouter(scanner *scan.Scanner, cfg *config.Config) *gin.Engine {
	if !a.flags.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("laminar"))
	if a.flags.debug {
		router.Use(gin.Logger())
	}

	handlers := laminar.NewHandlers(scanner, laminar.HandlersConfig{
		RatePerSecond:  cfg.Server.RatePerSecond,
		Burst:          cfg.Server.Burst,
		MaxSourceBytes: int64(cfg.Scan.MaxSourceBytes),
	})
	v1 := router.Group("/v1")
	laminar.RegisterRoutes(v1, handlers)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
