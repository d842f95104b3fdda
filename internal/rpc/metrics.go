package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newslink",
			Name:      "rpc_calls_total",
			Help:      "Total number of RPC calls by procedure and result code",
		},
		[]string{"procedure", "code"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newslink",
			Name:      "rpc_duration_seconds",
			Help:      "RPC call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"procedure"},
	)
)

const unknownProcedure = "unknown"
