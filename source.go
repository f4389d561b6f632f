package main

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CPUSource is the sampler's view of the host: refresh the usage counters,
// then read one value per logical core.
type CPUSource interface {
	Refresh(ctx context.Context) error
	PerCore() []float64
}

// hostCPU reads per-core utilization through gopsutil. Each Refresh measures
// the delta since the previous Refresh.
type hostCPU struct {
	cores []float64
}

func newHostCPU() *hostCPU {
	return &hostCPU{}
}

func (h *hostCPU) Refresh(ctx context.Context) error {
	pcts, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return fmt.Errorf("reading per-core cpu usage: %w", err)
	}
	h.cores = pcts
	return nil
}

func (h *hostCPU) PerCore() []float64 {
	return h.cores
}
