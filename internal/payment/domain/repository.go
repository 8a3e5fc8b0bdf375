package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*Payment, error)

	// Applicator transaction steps. Lock methods take row locks where
	// the dialect supports them.
	FindInvoiceForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.RecurringInvoice, error)
	MarkInvoicePaid(ctx context.Context, db *gorm.DB, invoiceID, paymentID snowflake.ID, paidAt time.Time) (bool, error)
	FindCitizenForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*citizendomain.Citizen, error)
	DecrementCitizenDebt(ctx context.Context, db *gorm.DB, citizenID snowflake.ID, amount decimal.Decimal) error
}
