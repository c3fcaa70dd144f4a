// Package provision simulates the cloud-side tenant provisioning calls.
// Swap for a real cloud client without touching the use case.
package provision

import (
	"context"
	"errors"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
)

type Simulator struct {
	latency  time.Duration
	failFunc func(tenant *entity.Tenant) bool
}

func NewSimulator(latency time.Duration, failFunc func(tenant *entity.Tenant) bool) *Simulator {
	return &Simulator{
		latency:  latency,
		failFunc: failFunc,
	}
}

func (s *Simulator) Provision(ctx context.Context, tenant *entity.Tenant) error {
	if err := s.sleep(ctx); err != nil {
		return err
	}

	if s.failFunc != nil && s.failFunc(tenant) {
		return errors.New("simulated provisioning failure")
	}

	return nil
}

func (s *Simulator) Deprovision(ctx context.Context, tenant *entity.Tenant) error {
	return s.sleep(ctx)
}

func (s *Simulator) sleep(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}

	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
