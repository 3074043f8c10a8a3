// Package metrics exposes Prometheus metrics for inbound HTTP requests and
// for the portfolio allocation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wealthplan"

// Collector owns the Prometheus registry and the HTTP request metrics.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	pipeline        *Pipeline
}

// Pipeline records allocation pipeline outcomes. A nil *Pipeline is valid
// and records nothing.
type Pipeline struct {
	advisoryCalls *prometheus.CounterVec
	priceLookups  *prometheus.CounterVec
	replacements  *prometheus.CounterVec
}

// NewCollector constructs a collector with its own registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	pipeline := &Pipeline{
		advisoryCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "advisory_calls_total",
			Help:      "Advisory service invocations by pipeline stage and outcome.",
		}, []string{"stage", "outcome"}),
		priceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "price_lookups_total",
			Help:      "Ticker price lookups by outcome (priced, cached, unpriced).",
		}, []string{"outcome"}),
		replacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "allocation_replacements_total",
			Help:      "Replace-all allocation writes by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		requestDuration,
		requestTotal,
		pipeline.advisoryCalls,
		pipeline.priceLookups,
		pipeline.replacements,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		pipeline:        pipeline,
	}, nil
}

// Pipeline returns the pipeline recorder bound to this collector's registry.
func (c *Collector) Pipeline() *Pipeline {
	return c.pipeline
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		c.requestTotal.WithLabelValues(ctx.Request.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(ctx.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// AdvisoryCall counts one advisory invocation.
func (p *Pipeline) AdvisoryCall(stage, outcome string) {
	if p == nil {
		return
	}
	p.advisoryCalls.WithLabelValues(stage, outcome).Inc()
}

// PriceLookup counts one ticker price lookup.
func (p *Pipeline) PriceLookup(outcome string) {
	if p == nil {
		return
	}
	p.priceLookups.WithLabelValues(outcome).Inc()
}

// Replacement counts one replace-all write.
func (p *Pipeline) Replacement(outcome string) {
	if p == nil {
		return
	}
	p.replacements.WithLabelValues(outcome).Inc()
}
