package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/events"
	"github.com/polkiloo/posorder/internal/metrics"
)

// Module provides the lifecycle event relay.
var Module = fx.Provide(newOutboxRelay)

type relayParams struct {
	fx.In

	Events    repository.EventRepository
	Publisher events.Publisher
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func newOutboxRelay(p relayParams) *OutboxRelay {
	return NewOutboxRelay(
		p.Events,
		p.Publisher,
		p.Config.RelayInterval,
		p.Config.RelayBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
		p.Metrics,
	)
}
