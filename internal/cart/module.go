package cart

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/lifecycle"
	"github.com/polkiloo/posorder/internal/metrics"
	"github.com/polkiloo/posorder/internal/pricing"
	"github.com/polkiloo/posorder/internal/stock"
)

// Module provides the cart reconciler.
var Module = fx.Provide(newReconciler)

type reconcilerParams struct {
	fx.In

	Orders    repository.OrderRepository
	Validator *stock.Validator
	Machine   *lifecycle.Machine
	Pricer    *pricing.Calculator
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func newReconciler(p reconcilerParams) *Reconciler {
	return NewReconciler(p.Orders, p.Validator, p.Machine, p.Pricer, p.Config.StoreTimeout, p.Logger, p.Metrics)
}
