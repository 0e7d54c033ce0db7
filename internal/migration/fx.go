package migration

import (
	"github.com/resellops/backoffice/internal/config"
	"github.com/resellops/backoffice/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// golang-migrate only drives the postgres deployments; sqlite
		// schemas are created by hand in tests.
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.BootstrapAdminPassword != "" {
			return seed.EnsureSuperAdmin(conn, cfg.BootstrapAdminUser, cfg.BootstrapAdminPassword)
		}
		return nil
	}),
)
