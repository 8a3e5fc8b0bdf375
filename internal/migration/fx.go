package migration

import (
	"github.com/valnet/valdesk-central/internal/citizen/domain"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	paymentdomain "github.com/valnet/valdesk-central/internal/payment/domain"
	serviceassignmentdomain "github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	ticketdomain "github.com/valnet/valdesk-central/internal/ticket/domain"
	"github.com/valnet/valdesk-central/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Non-postgres targets (local sqlite, tests) fall back to AutoMigrate.
		return conn.AutoMigrate(
			&domain.Citizen{},
			&serviceassignmentdomain.ServiceAssignment{},
			&invoicedomain.RecurringInvoice{},
			&paymentdomain.Payment{},
			&ticketdomain.Ticket{},
		)
	}),
)
