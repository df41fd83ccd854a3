package link

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// DefaultStatsInterval is the sampling period of Sampler.
const DefaultStatsInterval = time.Second

// Counter counts decoded messages.
type Counter struct {
	n uint64
}

// Inc increments the counter.
func (c *Counter) Inc() {
	atomic.AddUint64(&c.n, 1)
}

// Load reads the counter.
func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.n)
}

// Swap reads and resets the counter.
func (c *Counter) Swap() uint64 {
	return atomic.SwapUint64(&c.n, 0)
}

// Sampler periodically reports the Counter as a StatsEvent.
type Sampler struct {
	Counter  *Counter
	Sink     Sink
	Interval time.Duration
}

// NewSampler creates a Sampler with DefaultStatsInterval.
func NewSampler(counter *Counter, sink Sink) *Sampler {
	return &Sampler{Counter: counter, Sink: sink, Interval: DefaultStatsInterval}
}

// Name implements framework.Named.
func (s *Sampler) Name() string {
	return "stats"
}

// Run implements framework.Runnable.
func (s *Sampler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		n := s.Counter.Swap()
		ev := &StatsEvent{
			Reports:       n,
			Interval:      interval,
			ReportsPerSec: float64(n) / interval.Seconds(),
		}
		if err := s.Sink.Emit(ctx, ev); err != nil {
			if errors.Is(err, ErrConsumerGone) {
				return nil
			}
			return err
		}
	}
}
