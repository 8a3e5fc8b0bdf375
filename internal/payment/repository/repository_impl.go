package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, invoice_id, citizen_id, payment_number, amount, payment_method, status, paid_at, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.InvoiceID,
		payment.CitizenID,
		payment.PaymentNumber,
		payment.Amount,
		payment.PaymentMethod,
		payment.Status,
		payment.PaidAt,
		payment.CreatedBy,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindInvoiceForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.RecurringInvoice, error) {
	var invoice invoicedomain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM recurring_invoices WHERE id = ?`+lockingClause(db),
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

// MarkInvoicePaid is a check-and-set: the status predicate guards
// against double application on dialects without row locks.
func (r *repo) MarkInvoicePaid(ctx context.Context, db *gorm.DB, invoiceID, paymentID snowflake.ID, paidAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices
		 SET status = ?, payment_date = ?, payment_id = ?, is_overdue = ?, days_overdue = 0, updated_at = ?
		 WHERE id = ? AND status = ?`,
		invoicedomain.InvoiceStatusPaid,
		paidAt,
		paymentID,
		false,
		paidAt,
		invoiceID,
		invoicedomain.InvoiceStatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindCitizenForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*citizendomain.Citizen, error) {
	var citizen citizendomain.Citizen
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM citizens WHERE id = ?`+lockingClause(db),
		id,
	).Scan(&citizen).Error
	if err != nil {
		return nil, err
	}
	if citizen.ID == 0 {
		return nil, nil
	}
	return &citizen, nil
}

// DecrementCitizenDebt lowers the running balance. No floor at zero:
// overpayment drives the balance negative.
func (r *repo) DecrementCitizenDebt(ctx context.Context, db *gorm.DB, citizenID snowflake.ID, amount decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE citizens SET total_debt = total_debt - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount,
		citizenID,
	).Error
}

func lockingClause(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
