package workerclient

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// hostStats is a snapshot of this machine's load. The client logs it once
// per connection; it is not sent to the server and does not gate accepting
// transcodes.
type hostStats struct {
	CPUCores      int
	CPUPercent    float64
	LoadAvg1      float64
	MemoryPercent float64
}

func collectHostStats(ctx context.Context) hostStats {
	var s hostStats

	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.CPUCores = cores
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.LoadAvg1 = avg.Load1
	}
	if virt, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryPercent = virt.UsedPercent
	}

	return s
}
