package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/app"
	"github.com/polkiloo/posorder/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(
	func(f *app.SalesFacade) handlers.SalesFacade { return f },
	Setup,
)
