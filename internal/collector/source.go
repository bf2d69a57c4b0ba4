package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostSource reads raw figures from the operating system.
type HostSource interface {
	// Memory returns used and total physical memory in bytes.
	Memory(ctx context.Context) (used, total uint64, err error)
	// DiskUsage returns free and total bytes of the filesystem holding path.
	DiskUsage(ctx context.Context, path string) (free, total uint64, err error)
	// LoadAverage returns the 1-minute load average.
	LoadAverage(ctx context.Context) (float64, error)
	// Hostname returns the host name.
	Hostname(ctx context.Context) (string, error)
}

type gopsutilSource struct{}

// NewHostSource returns a HostSource backed by gopsutil.
func NewHostSource() HostSource { return gopsutilSource{} }

func (gopsutilSource) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

func (gopsutilSource) DiskUsage(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	return usage.Free, usage.Total, nil
}

func (gopsutilSource) LoadAverage(ctx context.Context) (float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return avg.Load1, nil
}

func (gopsutilSource) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}
