package server

import (
	"code-lab/domain"
	"code-lab/runtime"
	"code-lab/runtime/workers"
	"time"

	"github.com/sony/gobreaker"
)

type (
	RegistryStats interface{ Stats() runtime.Stats }
	LoadSource    interface{ Load() runtime.Load }
	ProcessSource interface {
		Snapshot() []domain.ProcessSample
		PeakRSS() uint64
	}
	ChannelSource interface{ Snapshot() []workers.ChannelLoad }
	RestartSource interface{ Restarts() int }
	BreakerSource interface{ State() gobreaker.State }
)

// Stats is the body of GET /stats. It never names a room.
type Stats struct {
	Uptime    string                `json:"uptime"`
	Registry  runtime.Stats         `json:"registry"`
	Load      runtime.Load          `json:"load"`
	Processes ProcessStats          `json:"processes"`
	Channels  []workers.ChannelLoad `json:"channels"`
	Restarts  int                   `json:"workerRestarts"`
	Breaker   string                `json:"breaker"`
}

type ProcessStats struct {
	Running      int     `json:"running"`
	CPUPercent   float64 `json:"cpuPercent"`
	RSSBytes     uint64  `json:"rssBytes"`
	PeakRSSBytes uint64  `json:"peakRssBytes"`
}

type StatsCollector struct {
	started  time.Time
	registry RegistryStats
	load     LoadSource
	procs    ProcessSource
	channels ChannelSource
	restarts RestartSource
	breaker  BreakerSource
}

func NewStatsCollector(
	registry RegistryStats,
	load LoadSource,
	procs ProcessSource,
	channels ChannelSource,
	restarts RestartSource,
	breaker BreakerSource,
) *StatsCollector {
	return &StatsCollector{
		started:  time.Now(),
		registry: registry,
		load:     load,
		procs:    procs,
		channels: channels,
		restarts: restarts,
		breaker:  breaker,
	}
}

func (c *StatsCollector) Collect() Stats {
	samples := c.procs.Snapshot()
	procs := ProcessStats{Running: len(samples), PeakRSSBytes: c.procs.PeakRSS()}
	for _, s := range samples {
		procs.CPUPercent += s.CPUPercent
		procs.RSSBytes += s.RSSBytes
	}
	return Stats{
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Registry:  c.registry.Stats(),
		Load:      c.load.Load(),
		Processes: procs,
		Channels:  c.channels.Snapshot(),
		Restarts:  c.restarts.Restarts(),
		Breaker:   c.breaker.State().String(),
	}
}
