package workers

import (
	"chat-rooms/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthWorker samples the server's own process stats on a fixed interval
// and pushes them into the monitor, where the debug endpoint reads them.
type HealthWorker struct {
	log            *slog.Logger
	monitor        *observability.Monitor
	metricInterval time.Duration
}

func NewHealthWorker(log *slog.Logger, monitor *observability.Monitor,
	metricInterval time.Duration) *HealthWorker {
	return &HealthWorker{log: log, monitor: monitor, metricInterval: metricInterval}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Own PID not inspectable, nothing to sample. Returning the error
		// would only make the supervisor restart into the same wall.
		w.log.Error("Cannot inspect own process, health sampling disabled", "err", err)
		return nil
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health sampling")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while reading cpu usage", "err", err)
				continue
			}
			mem, err := proc.MemoryInfo()
			if err != nil {
				w.log.Error("Error while reading memory usage", "err", err)
				continue
			}
			w.monitor.SetProcessStats(cpu, mem.RSS/1024/1024)
		}
	}
}
