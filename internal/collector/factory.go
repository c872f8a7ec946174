package collector

import (
	"fmt"

	"github.com/qepting91/recordsync/internal/config"
	"github.com/qepting91/recordsync/internal/domain"
)

// NewCollector selects the correct implementation based on the mode
func NewCollector(cfg config.Config) (domain.Source, error) {
	switch cfg.CollectorMode {
	case "public", "":
		eps, err := LoadEndpoints(cfg.EndpointsFile, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewPublicClient(PublicOptions{
			Endpoints:    eps,
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Timeout,
			RateInterval: cfg.RateInterval,
		})
	case "mock":
		return NewMockClient(cfg.MockCount, cfg.MockLatency), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'public' or 'mock')", cfg.CollectorMode)
	}
}
