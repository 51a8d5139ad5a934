package scan

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler drives the controller on a fixed interval. Stop blocks until
// the loop has exited; a cycle already in flight finishes on its own.
type Scheduler struct {
	controller *Controller
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
}

func NewScheduler(controller *Controller, interval time.Duration) *Scheduler {
	if interval < 10*time.Second { // floor against hammering the feed API
		interval = 10 * time.Second
	}
	return &Scheduler{
		controller: controller,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true
	go s.loop()
}

func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) loop() {
	initial := time.NewTimer(5 * time.Second)
	ticker := time.NewTicker(s.interval)
	defer func() { ticker.Stop(); close(s.doneCh) }()
	for {
		select {
		case <-s.stopCh:
			return
		case <-initial.C:
			s.runOnce()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if _, err := s.controller.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleInFlight) {
		log.Error().Err(err).Msg("Scheduled scan cycle failed")
	}
}
