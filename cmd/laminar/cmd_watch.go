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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/laminar/services/laminar/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Scan a directory and rescan whenever its assets change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rescan := func(ctx context.Context) {
				report, err := a.scanDir(ctx, scanner, cfg, dir)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Error("scan failed", slog.String("error", err.Error()))
					}
					return
				}
				// Asset failures are already printed; keep watching.
				if err := a.emit(report); err != nil && !errors.Is(err, errAssetFailures) {
					logger.Error("writing scan output failed", slog.String("error", err.Error()))
				}
			}
			rescan(ctx)

			w := watch.NewWatcher(dir, func(ctx context.Context, changed []string) {
				logger.Info("assets changed, rescanning", slog.Int("changed", len(changed)))
				rescan(ctx)
			}, watch.WatcherOptions{
				Extensions: cfg.Scan.Extensions,
				Logger:     logger,
			})
			logger.Info("watching for changes", slog.String("dir", dir))
			return w.Run(ctx)
		},
	}
}
