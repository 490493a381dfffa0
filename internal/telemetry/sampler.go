// Package telemetry samples resource usage of the machine hosting the
// dashboard.
package telemetry

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	"tweetdash/internal/models"
	"tweetdash/internal/utils"
)

// Sampler keeps the last host sample and the counters needed for rates.
type Sampler struct {
	rootPath string
	now      func() time.Time
	log      *utils.Logger

	mu            sync.RWMutex
	latest        *models.HostTelemetry
	lastCPUTotal  float64
	lastCPUIdle   float64
	lastNetRecv   uint64
	lastNetSent   uint64
	lastNetSample time.Time
}

// New creates a sampler measuring disk usage of rootPath ("/" when empty).
func New(rootPath string, now func() time.Time, logger *utils.Logger) *Sampler {
	if strings.TrimSpace(rootPath) == "" {
		rootPath = "/"
	}
	if now == nil {
		now = time.Now
	}
	return &Sampler{rootPath: rootPath, now: now, log: logger.With("component", "telemetry")}
}

// Sample collects a fresh reading and stores it as the latest.
func (s *Sampler) Sample(ctx context.Context) models.HostTelemetry {
	snap := models.HostTelemetry{SampledAt: s.now()}

	if times, err := cpu.TimesWithContext(ctx, false); err == nil && len(times) > 0 {
		total := cpuTotal(times[0])
		idle := times[0].Idle + times[0].Iowait
		deltaTotal, deltaIdle, hasPrev := s.updateCPUSample(total, idle)
		if hasPrev && deltaTotal > 0 {
			used := math.Max(deltaTotal-deltaIdle, 0)
			snap.CPUPercent = clampFloat((used/deltaTotal)*100, 0, 100)
		}
	} else if err != nil {
		s.log.Debugf("cpu times: %v", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		snap.MemoryPercent = clampFloat(vm.UsedPercent, 0, 100)
		snap.MemoryUsed = vm.Used
		snap.MemoryTotal = vm.Total
	}

	if du, err := disk.UsageWithContext(ctx, s.rootPath); err == nil && du != nil {
		snap.DiskPercent = clampFloat(du.UsedPercent, 0, 100)
		snap.DiskUsed = du.Used
		snap.DiskTotal = du.Total
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil {
		var recv, sent uint64
		for _, c := range counters {
			recv += c.BytesRecv
			sent += c.BytesSent
		}
		snap.NetInBps, snap.NetOutBps = s.computeNetworkRates(recv, sent, snap.SampledAt)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		snap.Load1 = avg.Load1
	}
	if info, err := host.InfoWithContext(ctx); err == nil && info != nil {
		snap.UptimeSeconds = info.Uptime
	}

	snap.HealthPercent = computeHealth(snap.CPUPercent, snap.MemoryPercent, snap.DiskPercent)

	s.mu.Lock()
	cp := snap
	s.latest = &cp
	s.mu.Unlock()
	return snap
}

// Latest returns the most recent sample.
func (s *Sampler) Latest() (models.HostTelemetry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return models.HostTelemetry{}, false
	}
	return *s.latest, true
}

func cpuTotal(stat cpu.TimesStat) float64 {
	return stat.User + stat.System + stat.Nice + stat.Idle + stat.Iowait + stat.Irq + stat.Softirq + stat.Steal + stat.Guest + stat.GuestNice
}

func (s *Sampler) updateCPUSample(total, idle float64) (float64, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deltaTotal := total - s.lastCPUTotal
	deltaIdle := idle - s.lastCPUIdle
	hasPrev := s.lastCPUTotal > 0
	s.lastCPUTotal = total
	s.lastCPUIdle = idle
	return deltaTotal, deltaIdle, hasPrev
}

func (s *Sampler) computeNetworkRates(recv, sent uint64, now time.Time) (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inbound, outbound float64
	if !s.lastNetSample.IsZero() && now.After(s.lastNetSample) {
		elapsed := now.Sub(s.lastNetSample).Seconds()
		if recv >= s.lastNetRecv {
			inbound = float64(recv-s.lastNetRecv) / elapsed
		}
		if sent >= s.lastNetSent {
			outbound = float64(sent-s.lastNetSent) / elapsed
		}
	}
	s.lastNetRecv = recv
	s.lastNetSent = sent
	s.lastNetSample = now
	return inbound, outbound
}

// computeHealth is 100 minus the busiest of cpu, memory and disk.
func computeHealth(cpu, mem, disk float64) float64 {
	maxUsage := 0.0
	for _, v := range []float64{cpu, mem, disk} {
		if v > maxUsage {
			maxUsage = v
		}
	}
	return clampFloat(100-maxUsage, 0, 100)
}

func clampFloat(val, min, max float64) float64 {
	if math.IsNaN(val) {
		return min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
