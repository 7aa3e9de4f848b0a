package catalog

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/domain/repository"
)

// Module exposes the catalog used for stock pre-checks. Without a remote
// address the record store's own product table serves as the catalog.
var Module = fx.Provide(newCatalog)

type catalogParams struct {
	fx.In

	Config  *config.Config
	Factory repository.Factory
	Logger  *slog.Logger
}

func newCatalog(p catalogParams) (repository.Catalog, error) {
	if p.Config.CatalogAddress == "" {
		return p.Factory.Catalog(), nil
	}
	p.Logger.Info("using remote catalog", slog.String("address", p.Config.CatalogAddress))
	return NewHTTPClient(p.Config.CatalogAddress, p.Logger)
}
