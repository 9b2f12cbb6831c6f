package workers

import (
	"code-lab/contract"
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"
)

var _ contract.Worker = (*ChannelCapacityWorker)(nil)

// saturationRatio is the fill level above which a channel is reported.
const saturationRatio = 0.8

type NamedChannel struct {
	Name    string
	Channel any
}

type ChannelLoad struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	Capacity int    `json:"capacity"`
}

// ChannelCapacityWorker periodically samples the fill level of the internal
// channels. Reading len and cap is non-blocking, it never interferes with
// the goroutines using them.
type ChannelCapacityWorker struct {
	mu             sync.Mutex
	log            *slog.Logger
	channels       []NamedChannel
	metricInterval time.Duration
	latest         map[string]ChannelLoad
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		metricInterval: metricInterval,
		latest:         make(map[string]ChannelLoad),
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *ChannelCapacityWorker) sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		load := ChannelLoad{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()}
		if load.Capacity > 0 && float64(load.Length) >= saturationRatio*float64(load.Capacity) {
			w.log.Warn("Channel close to saturation", "name", load.Name, "length", load.Length, "capacity", load.Capacity)
		}
		w.mu.Lock()
		w.latest[nc.Name] = load
		w.mu.Unlock()
	}
}

// Snapshot returns the last reading of every channel, by name.
func (w *ChannelCapacityWorker) Snapshot() []ChannelLoad {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ChannelLoad, 0, len(w.latest))
	for _, l := range w.latest {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
