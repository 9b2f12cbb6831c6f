package workers

import (
	"code-lab/contract"
	"code-lab/domain"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
)

var (
	_ contract.Worker         = (*ProcessMonitor)(nil)
	_ contract.ProcessTracker = (*ProcessMonitor)(nil)
)

// ProcessMonitor samples CPU and memory of the user programs currently
// running. Samples are kept only while the program lives.
type ProcessMonitor struct {
	mu             sync.Mutex
	log            *slog.Logger
	metricInterval time.Duration
	processes      map[domain.PID]domain.ProcessSample
	peakRSS        uint64
}

func NewProcessMonitor(log *slog.Logger, metricInterval time.Duration) *ProcessMonitor {
	return &ProcessMonitor{
		log:            log,
		metricInterval: metricInterval,
		processes:      make(map[domain.PID]domain.ProcessSample),
	}
}

func (w *ProcessMonitor) Track(p domain.Process) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processes[p.PID] = domain.ProcessSample{Process: p}
}

func (w *ProcessMonitor) Untrack(pid domain.PID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.processes, pid)
}

func (w *ProcessMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process monitoring")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *ProcessMonitor) sample() {
	w.mu.Lock()
	tracked := lo.Keys(w.processes)
	w.mu.Unlock()

	for _, pid := range tracked {
		p, err := process.NewProcess(int32(pid))
		if err != nil {
			w.log.Debug("Program already gone", "pid", pid, "error", err)
			w.Untrack(pid)
			continue
		}
		cpu, err := p.CPUPercent()
		if err != nil {
			w.log.Debug("Error while finding process cpu usage", "pid", pid, "error", err)
			continue
		}
		mem, err := p.MemoryInfo()
		if err != nil {
			w.log.Debug("Error while finding process memory usage", "pid", pid, "error", err)
			continue
		}

		w.mu.Lock()
		s, ok := w.processes[pid]
		if ok {
			s.CPUPercent = cpu
			s.RSSBytes = mem.RSS
			w.processes[pid] = s
			w.peakRSS = max(w.peakRSS, mem.RSS)
		}
		w.mu.Unlock()
		if ok {
			w.log.Debug("Program sampled", "pid", pid, "language", s.Language,
				"cpu_percent", cpu, "rss_bytes", mem.RSS, "running_for", time.Since(s.StartedAt))
		}
	}
}

// Snapshot returns the running programs, oldest first.
func (w *ProcessMonitor) Snapshot() []domain.ProcessSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	samples := lo.Values(w.processes)
	slices.SortFunc(samples, func(a, b domain.ProcessSample) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return samples
}

// PeakRSS is the highest resident memory seen for a single program.
func (w *ProcessMonitor) PeakRSS() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.peakRSS
}
