package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
)

// Module provides staff token verification via fx.
var Module = fx.Provide(newTokenStrategy)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.AuthSecret, Options{})
}
