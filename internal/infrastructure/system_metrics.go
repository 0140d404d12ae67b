package infrastructure

import (
	"runtime"
	"time"
)

// RuntimeStats is a point-in-time view of the Go runtime, reported by the
// health endpoint.
type RuntimeStats struct {
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
	SysBytes       uint64  `json:"sys_bytes"`
	NumGC          uint32  `json:"num_gc"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	GoVersion      string  `json:"go_version"`
}

// CollectRuntimeStats reads runtime counters. startTime is the process start.
func CollectRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		NumGC:          mem.NumGC,
		UptimeSeconds:  time.Since(startTime).Seconds(),
		GoVersion:      runtime.Version(),
	}
}
