// Package hostinfo collects facts about the machine running a scan.
package hostinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Probe reads host facts. The default implementation uses gopsutil; tests
// substitute their own.
type Probe interface {
	Info(ctx context.Context) (*host.InfoStat, error)
	LogicalCPUs(ctx context.Context) (int, error)
}

type gopsutilProbe struct{}

func (gopsutilProbe) Info(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (gopsutilProbe) LogicalCPUs(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

// DefaultProbe queries the running host.
var DefaultProbe Probe = gopsutilProbe{}

// Detect returns a host summary. Probe failures fall back to what the Go
// runtime knows; they are never fatal.
func Detect(ctx context.Context, p Probe) types.HostSummary {
	if p == nil {
		p = DefaultProbe
	}
	s := types.HostSummary{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPUs: CPUs(ctx, p),
	}
	if info, err := p.Info(ctx); err == nil && info != nil {
		s.Hostname = info.Hostname
		s.Platform = info.Platform
		s.PlatformVersion = info.PlatformVersion
	}
	if s.Hostname == "" {
		s.Hostname, _ = os.Hostname()
	}
	return s
}

// CPUs returns the number of logical CPUs, at least 1.
func CPUs(ctx context.Context, p Probe) int {
	if p == nil {
		p = DefaultProbe
	}
	n, err := p.LogicalCPUs(ctx)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}
