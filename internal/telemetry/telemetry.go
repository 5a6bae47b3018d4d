// Package telemetry wires the engine's ambient logging and metrics
// stack: structured logging via go.uber.org/zap and counters/histograms
// via github.com/prometheus/client_golang, used throughout the module
// in place of bare log.Printf calls.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Telemetry bundles a logger and the engine's Prometheus metrics.
type Telemetry struct {
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
	Metrics *Metrics
}

// Metrics holds the engine's counters/histograms. New registers them;
// no package in this module updates them.
type Metrics struct {
	TasksScheduled   *prometheus.CounterVec
	TasksDropped     *prometheus.CounterVec
	MeshBuildSeconds *prometheus.HistogramVec
	RegionIOSeconds  *prometheus.HistogramVec
}

// New builds a Telemetry instance with a production zap logger and
// registers its metrics on registerer (prometheus.DefaultRegisterer
// when nil). Call Sync at engine teardown.
func New(registerer prometheus.Registerer) (*Telemetry, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		TasksScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelengine",
			Name:      "tasks_scheduled_total",
			Help:      "Tasks pushed onto the scheduler, by task kind.",
		}, []string{"kind"}),
		TasksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelengine",
			Name:      "tasks_dropped_total",
			Help:      "Tasks dropped before completion, by reason.",
		}, []string{"reason"}),
		MeshBuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxelengine",
			Name:      "mesh_build_seconds",
			Help:      "Wall time spent building a chunk mesh, by mesher kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mesher"}),
		RegionIOSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxelengine",
			Name:      "region_io_seconds",
			Help:      "Time spent reading/writing region files, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.TasksScheduled, m.TasksDropped, m.MeshBuildSeconds, m.RegionIOSeconds} {
		if err := registerer.Register(c); err != nil {
			// Already registered (e.g. reused registry in tests) is not fatal.
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &Telemetry{Logger: logger, Sugar: logger.Sugar(), Metrics: m}, nil
}

// NewNop returns a Telemetry backed by a no-op logger and an isolated
// registry, for use in tests.
func NewNop() *Telemetry {
	t, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	t.Logger = zap.NewNop()
	t.Sugar = t.Logger.Sugar()
	return t
}

func (t *Telemetry) Sync() {
	_ = t.Logger.Sync()
}
