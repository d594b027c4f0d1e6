package migration

import (
	"github.com/smallbiznis/faktur/internal/config"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	providerconfigdomain "github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned SQL migrations target postgres. Other
			// backends sync the schema from the models directly.
			return conn.AutoMigrate(
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&paymentdomain.Payment{},
				&providerconfigdomain.ProviderConfig{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
