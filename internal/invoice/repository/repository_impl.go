package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/pkg/db/option"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.RecurringInvoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO recurring_invoices (id, service_assignment_id, citizen_id, invoice_number, amount, description, start_date, due_date, status, is_overdue, days_overdue, payment_date, payment_id, last_invoice_date, next_invoice_date, cycle_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.ServiceAssignmentID,
		invoice.CitizenID,
		invoice.InvoiceNumber,
		invoice.Amount,
		invoice.Description,
		invoice.StartDate,
		invoice.DueDate,
		invoice.Status,
		invoice.IsOverdue,
		invoice.DaysOverdue,
		invoice.PaymentDate,
		invoice.PaymentID,
		invoice.LastInvoiceDate,
		invoice.NextInvoiceDate,
		invoice.CycleKey,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RecurringInvoice, error) {
	var invoice domain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM recurring_invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.RecurringInvoice, error) {
	var invoices []*domain.RecurringInvoice
	stmt := db.WithContext(ctx).
		Model(&domain.RecurringInvoice{})
	if filter.CitizenID != 0 {
		stmt = stmt.Where("citizen_id = ?", filter.CitizenID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.DueFrom != nil {
		stmt = stmt.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		stmt = stmt.Where("due_date <= ?", *filter.DueTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListByCitizen(ctx context.Context, db *gorm.DB, citizenID snowflake.ID) ([]*domain.RecurringInvoice, error) {
	var invoices []*domain.RecurringInvoice
	err := db.WithContext(ctx).
		Model(&domain.RecurringInvoice{}).
		Where("citizen_id = ?", citizenID).
		Order("due_date asc, id asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
