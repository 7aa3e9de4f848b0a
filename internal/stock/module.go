package stock

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/metrics"
)

// Module provides the stock validator.
var Module = fx.Provide(newValidator)

type validatorParams struct {
	fx.In

	Catalog repository.Catalog
	Orders  repository.OrderRepository
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func newValidator(p validatorParams) *Validator {
	return NewValidator(p.Catalog, p.Orders, p.Config.CriticalStockThreshold, p.Logger, p.Metrics)
}
