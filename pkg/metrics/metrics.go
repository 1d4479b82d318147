// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics interface {
	SetQueueDepth(depth int)
	AddMatchCreated()
	AddJoinWaiting(reason string)
	AddJoinElapsedTimeMs(elapsedTime time.Duration)
	AddPieceOp(op, outcome string)
	AddMatchCompleted(reason string)
}

func NewMetrics(registry *prometheus.Registry) EngineMetrics {
	return setupPrometheusMetrics(registry)
}

// Noop returns a metrics sink that records nothing, for tests and embedders
// that do not run a registry.
func Noop() EngineMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) SetQueueDepth(int)                  {}
func (noopMetrics) AddMatchCreated()                   {}
func (noopMetrics) AddJoinWaiting(string)              {}
func (noopMetrics) AddJoinElapsedTimeMs(time.Duration) {}
func (noopMetrics) AddPieceOp(string, string)          {}
func (noopMetrics) AddMatchCompleted(string)           {}
