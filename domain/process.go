package domain

import "time"

type PID int32

// Process is a running user program as seen by the process monitor.
type Process struct {
	PID       PID
	Language  Language
	StartedAt time.Time
}

// ProcessSample is one CPU/memory reading of a running user program.
type ProcessSample struct {
	Process
	CPUPercent float64
	RSSBytes   uint64
}
