// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueDepth        prometheus.Gauge
	matchesCreated    prometheus.Counter
	joinWaiting       prometheus.CounterVec
	joinElapsedTime   prometheus.Histogram
	pieceOps          prometheus.CounterVec
	matchesCompleted  prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	queueDepth := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "minpuzz_matching_queue_depth",
			Help: "Number of live entries in the matchmaking queue after cleanup",
		})

	matchesCreated := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "minpuzz_matches_created_total",
			Help: "Number of matches committed by the matchmaking service",
		})

	joinWaiting := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minpuzz_join_waiting_total",
			Help: "Join attempts that returned waiting, by reason",
		}, []string{"reason"})

	//nolint:promlinter
	joinElapsedTime := factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minpuzz_join_elapsed_time_ms",
			Help:    "A histogram of joinQueue elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		})

	pieceOps := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minpuzz_piece_ops_total",
			Help: "Piece operations by op and outcome",
		}, []string{"op", "outcome"})

	matchesCompleted := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minpuzz_matches_completed_total",
			Help: "Completed matches by end reason",
		}, []string{"reason"})

	return prometheusMetrics{
		queueDepth:       queueDepth,
		matchesCreated:   matchesCreated,
		joinWaiting:      *joinWaiting,
		joinElapsedTime:  joinElapsedTime,
		pieceOps:         *pieceOps,
		matchesCompleted: *matchesCompleted,
	}
}

func (metrics prometheusMetrics) SetQueueDepth(depth int) {
	metrics.queueDepth.Set(float64(depth))
}

func (metrics prometheusMetrics) AddMatchCreated() {
	metrics.matchesCreated.Add(1)
}

func (metrics prometheusMetrics) AddJoinWaiting(reason string) {
	metrics.joinWaiting.With(prometheus.Labels{"reason": reason}).Add(1)
}

func (metrics prometheusMetrics) AddJoinElapsedTimeMs(elapsedTime time.Duration) {
	metrics.joinElapsedTime.Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddPieceOp(op, outcome string) {
	metrics.pieceOps.With(prometheus.Labels{"op": op, "outcome": outcome}).Add(1)
}

func (metrics prometheusMetrics) AddMatchCompleted(reason string) {
	metrics.matchesCompleted.With(prometheus.Labels{"reason": reason}).Add(1)
}
