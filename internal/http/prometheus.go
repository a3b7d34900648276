package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// countTimeout bounds the List call behind the reflections gauge.
const countTimeout = 2 * time.Second

// newRegistry builds a dedicated registry so tests and multiple servers in
// one process do not collide on the default one.
func newRegistry() (*prometheus.Registry, prometheus.Gauge) {
	reg := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_reflections",
		Help: "Number of reflections in the backing document, or -1 if it cannot be read.",
	})
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gauge,
	)
	return reg, gauge
}

func (s *Server) metricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// RefreshGauge recounts the stored reflections. It runs after every
// successful write and whenever the backing document changes on disk.
func (s *Server) RefreshGauge(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), countTimeout)
	defer cancel()

	items, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to count reflections", zap.Error(err))
		s.gauge.Set(-1)
		return
	}
	s.gauge.Set(float64(len(items)))
}
