// Package metrics provides Prometheus metrics for FTP sessions.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records control and data channel activity. A nil *Collector is
// valid and records nothing.
type Collector struct {
	commandsTotal    *prometheus.CounterVec
	transfersTotal   *prometheus.CounterVec
	transferBytes    *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	crawlEntries     prometheus.Counter
}

// New creates a Collector and registers it on reg. Metrics already
// registered on reg by another Collector are shared rather than duplicated.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Collector{
		commandsTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftp_commands_total",
				Help: "Total FTP commands by verb and reply class",
			},
			[]string{"verb", "class"},
		)),
		transfersTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftp_transfers_total",
				Help: "Total data channel operations by mode and outcome",
			},
			[]string{"mode", "status"},
		)),
		transferBytes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftp_transfer_bytes_total",
				Help: "Total bytes moved over data channels",
			},
			[]string{"direction"},
		)),
		transferDuration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ftp_transfer_duration_seconds",
				Help:    "Data channel operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		)),
		crawlEntries: register(reg, prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ftp_crawl_entries_total",
				Help: "Total directory entries returned by listings and crawls",
			},
		)),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Handler returns the HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveCommand records one control channel round trip. Code 0 means the
// command failed before a reply was read.
func (c *Collector) ObserveCommand(verb string, code int) {
	if c == nil {
		return
	}
	class := "error"
	if code > 0 {
		class = strconv.Itoa(code/100) + "xx"
	}
	c.commandsTotal.WithLabelValues(verb, class).Inc()
}

// ObserveTransfer records one data channel operation.
func (c *Collector) ObserveTransfer(mode, direction string, bytes int64, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.transfersTotal.WithLabelValues(mode, status).Inc()
	if bytes > 0 {
		c.transferBytes.WithLabelValues(direction).Add(float64(bytes))
	}
	c.transferDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveEntries records directory entries produced by a listing.
func (c *Collector) ObserveEntries(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.crawlEntries.Add(float64(n))
}
