package migration

import (
	"github.com/smallbiznis/tidybill/internal/config"
	"github.com/smallbiznis/tidybill/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}
		if !cfg.SeedDemo {
			return nil
		}
		if cfg.IsProduction() {
			log.Warn("SEED_DEMO ignored in production")
			return nil
		}
		return seed.EnsureDemoData(conn)
	}),
)
