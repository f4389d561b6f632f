package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const defaultSampleInterval = time.Second

// Sampler reads per-core CPU usage on a fixed period and publishes each
// reading to the hub. It is the only user of its CPUSource.
type Sampler struct {
	source    CPUSource
	hub       *Hub
	clock     clockwork.Clock
	interval  time.Duration
	log       zerolog.Logger
	telemetry *telemetry
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

func WithClock(c clockwork.Clock) SamplerOption {
	return func(s *Sampler) { s.clock = c }
}

func WithInterval(d time.Duration) SamplerOption {
	return func(s *Sampler) { s.interval = d }
}

func WithSamplerLogger(l zerolog.Logger) SamplerOption {
	return func(s *Sampler) { s.log = l }
}

func WithSamplerTelemetry(t *telemetry) SamplerOption {
	return func(s *Sampler) { s.telemetry = t }
}

func NewSampler(source CPUSource, hub *Hub, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		source:   source,
		hub:      hub,
		clock:    clockwork.NewRealClock(),
		interval: defaultSampleInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.telemetry == nil {
		s.telemetry = newTelemetry(nil)
	}
	s.log = s.log.With().Str("component", "sampler").Logger()
	return s
}

// Run ticks until ctx is cancelled. Viewers have no influence on it: every
// tick publishes, whether anyone is subscribed or not.
func (s *Sampler) Run(ctx context.Context) error {
	// gopsutil reports usage since the previous call; prime it so the first
	// tick covers one interval.
	if err := s.source.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("priming cpu source")
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.interval).Msg("sampler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("sampler stopped")
			return nil
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *Sampler) tick(ctx context.Context) {
	defer s.telemetry.samplerTicks.Inc()

	snap, err := s.SampleOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.telemetry.samplerFailures.Inc()
		s.log.Warn().Err(err).Msg("sample failed")
		return
	}
	s.hub.Publish(snap)
}

// SampleOnce refreshes the source and returns the current reading.
func (s *Sampler) SampleOnce(ctx context.Context) (Snapshot, error) {
	if err := s.source.Refresh(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("refreshing cpu usage: %w", err)
	}
	return NewSnapshot(s.source.PerCore()), nil
}
