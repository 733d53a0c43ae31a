package renderer

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/df07/go-volume-raymarcher/pkg/core"
)

// SystemInfo describes the host a render runs on
type SystemInfo struct {
	CPUModel     string
	LogicalCores int
	TotalMemory  uint64 // Bytes
	FreeMemory   uint64 // Bytes available to new allocations
}

// GetSystemInfo queries the host. Fields the platform cannot report are
// left at their fallbacks: runtime.NumCPU for the core count, zero otherwise.
func GetSystemInfo() (SystemInfo, error) {
	info := SystemInfo{LogicalCores: runtime.NumCPU()}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return info, err
	}
	if len(cpuInfo) > 0 {
		info.CPUModel = cpuInfo[0].ModelName
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, err
	}
	info.TotalMemory = memInfo.Total
	info.FreeMemory = memInfo.Available

	return info, nil
}

// LogSystemInfo writes a one-line host summary. Query failures are logged,
// never fatal.
func LogSystemInfo(logger core.Logger) {
	info, err := GetSystemInfo()
	if err != nil {
		logger.Printf("System info unavailable: %v\n", err)
	}
	const gib = 1 << 30
	logger.Printf("Host: %s, %d logical cores, %.1f/%.1f GiB memory available\n",
		info.CPUModel, info.LogicalCores, float64(info.FreeMemory)/gib, float64(info.TotalMemory)/gib)
}
