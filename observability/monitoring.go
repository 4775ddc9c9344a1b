// Package observability aggregates live telemetry for the debug surface.
// Counters are best effort and never sit on a hot-path lock.
package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor collects chat and process statistics. Message counters are
// incremented by the coordinator and the indexer; process stats are pushed
// periodically by the health worker.
type Monitor struct {
	log     *slog.Logger
	started time.Time

	messagesSent    uint64
	messagesIndexed uint64

	mu         sync.RWMutex
	cpuPercent float64
	rssMb      uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, started: time.Now()}
}

func (m *Monitor) IncrMessagesSent() {
	atomic.AddUint64(&m.messagesSent, 1)
}

func (m *Monitor) IncrMessagesIndexed() {
	atomic.AddUint64(&m.messagesIndexed, 1)
}

// SetProcessStats stores the latest sample from the health worker.
func (m *Monitor) SetProcessStats(cpuPercent float64, rssMb uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuPercent = cpuPercent
	m.rssMb = rssMb
}

// Snapshot merges the counters, the last process sample, and the Go
// runtime's own memory stats into one flat map for the debug page.
func (m *Monitor) Snapshot() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.mu.RLock()
	cpu, rss := m.cpuPercent, m.rssMb
	m.mu.RUnlock()

	return map[string]any{
		"uptime_seconds":   int64(time.Since(m.started).Seconds()),
		"messages_sent":    atomic.LoadUint64(&m.messagesSent),
		"messages_indexed": atomic.LoadUint64(&m.messagesIndexed),
		"alloc_mem_mb":     memStats.Alloc / 1024 / 1024,
		"num_gc":           memStats.NumGC,
		"cpu_percent":      cpu,
		"rss_mb":           rss,
	}
}
