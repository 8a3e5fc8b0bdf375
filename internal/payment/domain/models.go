package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents payment lifecycle states. CANCELLED is a
// defined state with no transition path in this slice.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// PaymentMethod enumerates the accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodTransfer   PaymentMethod = "TRANSFER"
	PaymentMethodCheck      PaymentMethod = "CHECK"
)

// ValidMethod reports whether the method is one of the accepted values.
func ValidMethod(method PaymentMethod) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	default:
		return false
	}
}

// Payment is an immutable record of money applied against an invoice.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID     snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	CitizenID     snowflake.ID    `gorm:"not null;index" json:"citizen_id"`
	PaymentNumber string          `gorm:"not null" json:"payment_number"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"type:text;not null" json:"payment_method"`
	Status        PaymentStatus   `gorm:"type:text;not null;default:'CONFIRMED'" json:"status"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	CreatedBy     snowflake.ID    `gorm:"not null;default:0" json:"created_by"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
