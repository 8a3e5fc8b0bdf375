package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, citizen *Citizen) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Citizen, error)
	List(ctx context.Context, db *gorm.DB, filter ListCitizenFilter, page pagination.Pagination) ([]*Citizen, error)
	SumPendingInvoices(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error)
	UpdateDebt(ctx context.Context, db *gorm.DB, id snowflake.ID, totalDebt decimal.Decimal, isDebtor bool) error
}
