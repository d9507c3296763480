package migration

import (
	"github.com/driftbyte/skyvault/internal/config"
	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql and sqlite development setups take the gorm-derived
			// schema; the versioned SQL targets postgres.
			return conn.AutoMigrate(
				&ledgerdomain.UsageEntry{},
				&filefeeddomain.FileFact{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
