package hostinfo

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/stretchr/testify/assert"
)

type fakeProbe struct {
	info    *host.InfoStat
	infoErr error
	cpus    int
	cpuErr  error
}

func (f fakeProbe) Info(context.Context) (*host.InfoStat, error) { return f.info, f.infoErr }
func (f fakeProbe) LogicalCPUs(context.Context) (int, error)      { return f.cpus, f.cpuErr }

func TestDetect(t *testing.T) {
	p := fakeProbe{
		info: &host.InfoStat{Hostname: "wp-01", Platform: "ubuntu", PlatformVersion: "24.04"},
		cpus: 8,
	}
	s := Detect(context.Background(), p)
	assert.Equal(t, "wp-01", s.Hostname)
	assert.Equal(t, "ubuntu", s.Platform)
	assert.Equal(t, "24.04", s.PlatformVersion)
	assert.Equal(t, runtime.GOOS, s.OS)
	assert.Equal(t, runtime.GOARCH, s.Arch)
	assert.Equal(t, 8, s.CPUs)
}

func TestDetect_ProbeFailureFallsBack(t *testing.T) {
	p := fakeProbe{infoErr: errors.New("no /proc"), cpuErr: errors.New("no /proc")}
	s := Detect(context.Background(), p)
	assert.Equal(t, runtime.GOOS, s.OS)
	assert.Empty(t, s.Platform)
	assert.Equal(t, runtime.NumCPU(), s.CPUs)
}

func TestCPUs_NeverBelowOne(t *testing.T) {
	assert.GreaterOrEqual(t, CPUs(context.Background(), fakeProbe{cpus: 0}), 1)
	assert.Equal(t, 3, CPUs(context.Background(), fakeProbe{cpus: 3}))
}

func TestDetect_RealHost(t *testing.T) {
	s := Detect(context.Background(), nil)
	assert.NotEmpty(t, s.OS)
	assert.GreaterOrEqual(t, s.CPUs, 1)
}
