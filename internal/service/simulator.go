package service

import (
	"context"
	"time"

	"elevator_control/internal/logger"
)

// DefaultTick is the animation step used when Run gets a non-positive interval.
const DefaultTick = 20 * time.Millisecond

// Ticker advances the door and cab animations by one step.
type Ticker interface {
	Tick()
}

// SimulatorService drives a Ticker on a fixed clock.
type SimulatorService struct {
	target Ticker
	log    *logger.Logger
}

func NewSimulatorService(target Ticker, log *logger.Logger) *SimulatorService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SimulatorService{target: target, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	t := time.NewTicker(tick)
	defer t.Stop()

	s.log.Infow("simulator_started", "tick", tick)
	defer s.log.Infow("simulator_stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.target.Tick()
		}
	}
}
