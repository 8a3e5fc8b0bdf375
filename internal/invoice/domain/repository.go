package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	CitizenID snowflake.ID
	Status    InvoiceStatus
	DueFrom   *time.Time
	DueTo     *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *RecurringInvoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RecurringInvoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*RecurringInvoice, error)
	ListByCitizen(ctx context.Context, db *gorm.DB, citizenID snowflake.ID) ([]*RecurringInvoice, error)
}
