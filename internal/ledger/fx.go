package ledger

import (
	"github.com/driftbyte/skyvault/internal/config"
	"github.com/driftbyte/skyvault/internal/ledger/repository"
	"github.com/driftbyte/skyvault/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(ProvideServiceConfig),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

func ProvideServiceConfig(cfg config.Config) service.Config {
	return service.Config{QueryTimeout: cfg.QueryTimeout}
}
