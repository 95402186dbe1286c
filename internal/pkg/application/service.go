package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//BundleSink receives every bundle the service generates (files, archive, replay ...)
type BundleSink interface {
	Accept(ctx context.Context, bundle *models.Bundle) error
}

//Service keeps the most recent bundle available to readers while allowing regeneration
type Service struct {
	orchestrator *Orchestrator
	log          logging.Logger
	sinks        []BundleSink

	//runMu serializes generation and delivery, mu guards current
	runMu   sync.Mutex
	mu      sync.RWMutex
	current *models.Bundle
}

//NewService creates a service without a current bundle; call Regenerate to produce one
func NewService(orchestrator *Orchestrator, log logging.Logger, sinks ...BundleSink) *Service {
	return &Service{orchestrator: orchestrator, log: log, sinks: sinks}
}

//Current returns the last successfully delivered bundle, or nil
func (s *Service) Current() *models.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

//Regenerate runs the orchestrator and hands the bundle to every sink in order. The current
//bundle is only replaced once all sinks accepted the new one. Concurrent calls run one after
//the other so that sinks and the current bundle always agree on the latest run.
func (s *Service) Regenerate(ctx context.Context, seed int64) (*models.Bundle, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if seed == 0 {
		seed = s.orchestrator.Config().Seed
	}

	bundle, err := s.orchestrator.GenerateWithSeed(ctx, seed)
	if err != nil {
		return nil, err
	}

	for _, sink := range s.sinks {
		if err := sink.Accept(ctx, bundle); err != nil {
			s.log.Errorf("Failed to deliver run %s: %s", bundle.RunID, err.Error())
			return nil, fmt.Errorf("failed to deliver run %s: %w", bundle.RunID, err)
		}
	}

	s.mu.Lock()
	s.current = bundle
	s.mu.Unlock()

	return bundle, nil
}
