// Package sysinfo samples disk and memory usage for before/after reporting.
package sysinfo

import (
	"context"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// DiskUsage describes the filesystem containing Path.
type DiskUsage struct {
	Path        string
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

// Memory describes physical memory.
type Memory struct {
	Total       uint64
	Available   uint64
	Used        uint64
	UsedPercent float64
}

// Probe reads system usage.
type Probe interface {
	Disk(ctx context.Context, path string) (DiskUsage, error)
	Memory(ctx context.Context) (Memory, error)
}

// System reads usage from the running OS.
type System struct{}

func (System) Disk(ctx context.Context, path string) (DiskUsage, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskUsage{}, err
	}
	return DiskUsage{
		Path:        path,
		Total:       u.Total,
		Free:        u.Free,
		Used:        u.Used,
		UsedPercent: u.UsedPercent,
	}, nil
}

func (System) Memory(ctx context.Context) (Memory, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, err
	}
	return Memory{
		Total:       v.Total,
		Available:   v.Available,
		Used:        v.Used,
		UsedPercent: v.UsedPercent,
	}, nil
}

// Freed returns the free-space gain between two samples of the same filesystem.
// Other processes writing during the run can make it negative; that is reported as 0.
func Freed(before, after DiskUsage) uint64 {
	if after.Free <= before.Free {
		return 0
	}
	return after.Free - before.Free
}

// AvailableMemory adapts a probe to a function returning available bytes.
func AvailableMemory(ctx context.Context, p Probe) func() (uint64, error) {
	return func() (uint64, error) {
		m, err := p.Memory(ctx)
		if err != nil {
			return 0, err
		}
		return m.Available, nil
	}
}
