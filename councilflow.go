// Package councilflow provides a top-level convenience entry point for
// running a model council with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/councilflow"
//
//	cfg, err := config.Load("council.yaml")
//	c, err := councilflow.New(cfg, logger)
//	result := c.Run(ctx, "What is the best way to learn Go?")
//
// This is a thin wrapper wiring the openrouter transport into a
// council.Council; construct the pieces directly for custom providers.
package councilflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/config"
	"github.com/BaSui01/councilflow/council"
	"github.com/BaSui01/councilflow/internal/metrics"
	"github.com/BaSui01/councilflow/providers/openrouter"
)

// New builds a ready-to-run Council from a loaded configuration.
func New(cfg *config.Config, logger *zap.Logger) (*council.Council, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := openrouter.New(openrouter.Config{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.APIKey,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	}, logger)

	collector := metrics.NewCollector("councilflow", prometheus.DefaultRegisterer, logger)

	return council.New(provider, cfg.Roster(), council.Config{
		Chairman:     cfg.Chairman,
		TitleModel:   cfg.TitleModel,
		MaxRounds:    cfg.MaxRounds,
		MaxTokens:    cfg.API.MaxTokens,
		QueryTimeout: cfg.API.QueryTimeout,
		TitleTimeout: cfg.API.TitleTimeout,
	}, logger, council.WithCollector(collector)), nil
}
