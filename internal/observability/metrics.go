package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/game/permission"
)

const namespace = "traveller"

// Metrics holds the table server's Prometheus collectors. It satisfies
// dice.Recorder and permission.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	rolls         *prometheus.CounterVec
	rollResults   prometheus.Histogram
	taskChecks    *prometheus.CounterVec
	taskEffect    prometheus.Histogram
	permissions   *prometheus.CounterVec
	commands      *prometheus.CounterVec
	throttled     prometheus.Counter
	sessions      prometheus.Gauge
	rejected      prometheus.Counter
	sectorReloads *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a private registry,
// together with the Go runtime and process collectors.
//
// Postcondition: Returns a Metrics whose Registry serves every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolls_total",
			Help:      "Dice rolls evaluated, by notation.",
		}, []string{"notation"}),
		rollResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dice_roll_result",
			Help:      "Final results of dice rolls.",
			Buckets:   prometheus.LinearBuckets(0, 2, 13),
		}),
		taskChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_checks_total",
			Help:      "Task checks resolved, by outcome.",
		}, []string{"outcome"}),
		taskEffect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_check_effect",
			Help:      "Effect of resolved task checks.",
			Buckets:   prometheus.LinearBuckets(-8, 2, 9),
		}),
		permissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_checks_total",
			Help:      "Permission decisions, by check and code.",
		}, []string{"check", "code"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_commands_total",
			Help:      "Table console commands handled, by command.",
		}, []string{"command"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_commands_throttled_total",
			Help:      "Commands rejected by the per-connection rate limit.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "console_sessions",
			Help:      "Open table console connections.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_sessions_rejected_total",
			Help:      "Connections turned away because the console was full.",
		}),
		sectorReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sector_reloads_total",
			Help:      "Sector directory reloads, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rolls, m.rollResults, m.taskChecks, m.taskEffect,
		m.permissions, m.commands, m.throttled, m.sessions, m.rejected, m.sectorReloads,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRoll records a dice roll.
func (m *Metrics) ObserveRoll(notation string, finalResult int) {
	m.rolls.WithLabelValues(notation).Inc()
	m.rollResults.Observe(float64(finalResult))
}

// ObserveTaskCheck records a task check outcome.
func (m *Metrics) ObserveTaskCheck(success bool, effect int) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.taskChecks.WithLabelValues(outcome).Inc()
	m.taskEffect.Observe(float64(effect))
}

// ObservePermission records a permission decision.
func (m *Metrics) ObservePermission(check string, d permission.Decision) {
	code := "OK"
	if !d.Success {
		code = string(d.Code)
	}
	m.permissions.WithLabelValues(check, code).Inc()
}

// ObserveCommand records a handled console command.
func (m *Metrics) ObserveCommand(name string) {
	m.commands.WithLabelValues(name).Inc()
}

// ObserveThrottled records a rate-limited command.
func (m *Metrics) ObserveThrottled() {
	m.throttled.Inc()
}

// SessionOpened increments the open connection gauge.
func (m *Metrics) SessionOpened() { m.sessions.Inc() }

// SessionClosed decrements the open connection gauge.
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

// SessionRejected counts a connection refused at the session cap.
func (m *Metrics) SessionRejected() { m.rejected.Inc() }

// PoolStater reports database pool usage.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// RegisterPool exposes the pool's connection counts as gauges read at scrape time.
//
// Precondition: Called at most once per Metrics.
func (m *Metrics) RegisterPool(p PoolStater) {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(p.Stat())) })
	}
	m.registry.MustRegister(
		gauge("acquired_conns", "Connections currently in use.", (*pgxpool.Stat).AcquiredConns),
		gauge("idle_conns", "Idle connections.", (*pgxpool.Stat).IdleConns),
		gauge("total_conns", "Open connections.", (*pgxpool.Stat).TotalConns),
		gauge("max_conns", "Configured connection limit.", (*pgxpool.Stat).MaxConns),
	)
}

// ObserveSectorReload records a sector reload attempt.
func (m *Metrics) ObserveSectorReload(_ int, err error) {
	m.sectorReloads.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

// MetricsServer serves the registry over HTTP. It implements server.Service.
type MetricsServer struct {
	srv     *http.Server
	logger  *zap.Logger
	timeout time.Duration
}

// NewMetricsServer creates a server exposing m at cfg.Path on cfg.Addr().
//
// Precondition: cfg.Enabled should be true; m and logger must be non-nil.
func NewMetricsServer(cfg config.MetricsConfig, m *Metrics, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return &MetricsServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Start serves until Stop is called.
func (s *MetricsServer) Start() error {
	s.logger.Info("metrics endpoint listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down.
func (s *MetricsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics endpoint shutdown", zap.Error(err))
	}
}
