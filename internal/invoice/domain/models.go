// Package domain contains persistence models for recurring invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents recurring-invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// RecurringInvoice represents one billing cycle's obligation for a
// service assignment.
type RecurringInvoice struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	ServiceAssignmentID snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_recurring_invoices_assignment_cycle" json:"service_assignment_id"`
	CitizenID           snowflake.ID    `gorm:"not null;index" json:"citizen_id"`
	InvoiceNumber       string          `gorm:"not null" json:"invoice_number"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description         string          `json:"description,omitempty"`
	StartDate           time.Time       `gorm:"not null" json:"start_date"`
	DueDate             time.Time       `gorm:"not null;index" json:"due_date"`
	Status              InvoiceStatus   `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
	IsOverdue           bool            `gorm:"not null;default:false" json:"is_overdue"`
	DaysOverdue         int             `gorm:"not null;default:0" json:"days_overdue"`
	PaymentDate         *time.Time      `json:"payment_date,omitempty"`
	PaymentID           *snowflake.ID   `json:"payment_id,omitempty"`
	LastInvoiceDate     *time.Time      `json:"last_invoice_date,omitempty"`
	NextInvoiceDate     *time.Time      `json:"next_invoice_date,omitempty"`
	CycleKey            string          `gorm:"not null;uniqueIndex:ux_recurring_invoices_assignment_cycle" json:"cycle_key"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RecurringInvoice) TableName() string { return "recurring_invoices" }

// CycleKeyFor derives the idempotency key for a generation run. One
// successor per assignment per day: retried runs collide on the unique
// index instead of inserting duplicates.
func CycleKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
