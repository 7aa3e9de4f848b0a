package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/adapter/catalog"
	"github.com/polkiloo/posorder/internal/app"
	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/events"
	"github.com/polkiloo/posorder/internal/lifecycle"
	"github.com/polkiloo/posorder/internal/logger"
	"github.com/polkiloo/posorder/internal/metrics"
	"github.com/polkiloo/posorder/internal/pkg/auth"
	"github.com/polkiloo/posorder/internal/pricing"
	"github.com/polkiloo/posorder/internal/server/http/router"
	"github.com/polkiloo/posorder/internal/stock"
	"github.com/polkiloo/posorder/internal/storage/postgres"
	"github.com/polkiloo/posorder/internal/usecase"
	"github.com/polkiloo/posorder/internal/worker"
)

// Module assembles the service graph. opts are appended last so tests can replace providers.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		catalog.Module,
		pricing.Module,
		stock.Module,
		lifecycle.Module,
		cart.Module,
		usecase.Module,
		events.Module,
		worker.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
