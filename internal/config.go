package internal

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

type ExecutionPolicy string

const (
	// PolicyReject allows one in-flight execution per room, a second request is refused.
	PolicyReject ExecutionPolicy = "reject"
	// PolicyConcurrent lets executions of the same room overlap, results race.
	PolicyConcurrent ExecutionPolicy = "concurrent"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=10000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	WorkDir          string        `env:"WORK_DIR"`
	RunTimeout       time.Duration `env:"RUN_TIMEOUT,default=10s"`
	CompileTimeout   time.Duration `env:"COMPILE_TIMEOUT,default=15s"`
	MaxOutputBytes   int           `env:"MAX_OUTPUT_BYTES,default=1048576"`
	MaxCodeLength    int           `env:"MAX_CODE_LENGTH,default=200000"`
	ExecutionWorkers int           `env:"NUMBER_OF_EXECUTION_WORKERS,default=4"`
	ExecutionQueue   int           `env:"EXECUTION_QUEUE_SIZE,default=32"`
	ExecutionPolicy  string        `env:"ROOM_EXECUTION_POLICY,default=reject"`

	FanoutWorkers        int           `env:"NUMBER_OF_FANOUT_WORKERS,default=4"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=2s"`

	CorpusPath        string        `env:"CORPUS_PATH"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL,default=gemini-1.5-flash"`
	DiagnosticTimeout time.Duration `env:"DIAGNOSTIC_TIMEOUT,default=20s"`
	BreakerFailures   int           `env:"BREAKER_FAILURES,default=5"`
	BreakerCooldown   time.Duration `env:"BREAKER_COOLDOWN,default=30s"`

	StaticDir string `env:"STATIC_DIR"`
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	positives := map[string]int{
		"PORT":                        c.Port,
		"MAX_OUTPUT_BYTES":            c.MaxOutputBytes,
		"MAX_CODE_LENGTH":             c.MaxCodeLength,
		"NUMBER_OF_EXECUTION_WORKERS": c.ExecutionWorkers,
		"EXECUTION_QUEUE_SIZE":        c.ExecutionQueue,
		"NUMBER_OF_FANOUT_WORKERS":    c.FanoutWorkers,
		"BUFFER_SIZE":                 c.BufferSize,
		"CONNECTION_BUFFER_SIZE":      c.ConnectionBufferSize,
		"BREAKER_FAILURES":            c.BreakerFailures,
	}
	for _, name := range lo.Keys(positives) {
		if positives[name] <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, positives[name])
		}
	}
	durations := map[string]time.Duration{
		"RUN_TIMEOUT":        c.RunTimeout,
		"COMPILE_TIMEOUT":    c.CompileTimeout,
		"SINK_TIMEOUT":       c.SinkTimeout,
		"METRIC_INTERVAL":    c.MetricInterval,
		"DIAGNOSTIC_TIMEOUT": c.DiagnosticTimeout,
		"BREAKER_COOLDOWN":   c.BreakerCooldown,
	}
	for _, name := range lo.Keys(durations) {
		if durations[name] <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, durations[name])
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

func (c Config) Policy() (ExecutionPolicy, error) {
	switch p := ExecutionPolicy(c.ExecutionPolicy); p {
	case PolicyReject, PolicyConcurrent:
		return p, nil
	default:
		return "", fmt.Errorf(
			"ROOM_EXECUTION_POLICY must be %q or %q, got %q",
			PolicyReject, PolicyConcurrent, c.ExecutionPolicy,
		)
	}
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
