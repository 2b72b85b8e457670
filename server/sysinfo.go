package server

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/teranos/pharmadex/errors"
)

// systemStats is the process snapshot reported by /health.
type systemStats struct {
	RSSMB          uint64 `json:"rss_mb"`
	MemAvailableMB uint64 `json:"mem_available_mb"`
	MemTotalMB     uint64 `json:"mem_total_mb"`
	Goroutines     int    `json:"goroutines"`
}

// readSystemStats samples the process and host memory.
func readSystemStats() (systemStats, error) {
	stats := systemStats{Goroutines: runtime.NumGoroutine()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats, errors.Wrap(err, "failed to open process")
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return stats, errors.Wrap(err, "failed to get process memory")
	}
	stats.RSSMB = info.RSS >> 20

	vm, err := mem.VirtualMemory()
	if err != nil {
		return stats, errors.Wrap(err, "failed to get memory stats")
	}
	stats.MemAvailableMB = vm.Available >> 20
	stats.MemTotalMB = vm.Total >> 20
	return stats, nil
}
