package pricing

import (
	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
)

// Module provides the calculator configured with the service tax rate.
var Module = fx.Provide(func(cfg *config.Config) *Calculator {
	return NewCalculator(cfg.TaxRate)
})
