// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the HTTP server.
type Metrics struct {
	Requests        *prometheus.CounterVec   // labels: route, method, status
	RequestDuration *prometheus.HistogramVec // labels: route
	LayersAssembled *prometheus.CounterVec   // labels: level
	PlottedSites    *prometheus.GaugeVec     // labels: category
	DroppedSites    *prometheus.GaugeVec     // labels: category
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cartelec",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cartelec",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
		LayersAssembled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cartelec",
			Name:      "layers_assembled_total",
			Help:      "Layer sets assembled, by active level.",
		}, []string{"level"}),
		PlottedSites: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cartelec",
			Name:      "plotted_sites",
			Help:      "Sites drawn on the map, by category.",
		}, []string{"category"}),
		DroppedSites: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cartelec",
			Name:      "dropped_sites",
			Help:      "Sites left out of the map because their power is not a number, by category.",
		}, []string{"category"}),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.LayersAssembled,
		m.PlottedSites,
		m.DroppedSites,
	)

	return m
}

// middleware records every request. Unmatched routes share one label.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.Requests.WithLabelValues(route, ctx.Request.Method, strconv.Itoa(ctx.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
