// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Scans
// =============================================================================

var (
	// assetsTotal counts processed assets by outcome.
	// Labels: status (ok, cached, failed)
	assetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "assets_total",
		Help:      "Total assets scanned by status",
	}, []string{"status"})

	// literalsTotal counts decoded string literals across all assets.
	literalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "literals_total",
		Help:      "Total decoded string literals",
	})

	// eventsTotal counts recoverable extraction events.
	// Labels: kind (parse_failure, depth_exceeded)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "events_total",
		Help:      "Recoverable extraction events by kind",
	}, []string{"kind"})

	// cacheLookupsTotal counts candidate cache lookups.
	// Labels: result (hit, miss, error)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "cache_lookups_total",
		Help:      "Candidate cache lookups by result",
	}, []string{"result"})

	// candidatesGauge holds the candidate counts of the latest scan.
	// Labels: stage (valid, filtered)
	candidatesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "candidates",
		Help:      "Candidate class names in the latest scan by stage",
	}, []string{"stage"})

	// assetDurationSeconds measures per-asset processing time.
	assetDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "laminar",
		Subsystem: "scan",
		Name:      "asset_duration_seconds",
		Help:      "Time to extract candidates from one asset",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
)
