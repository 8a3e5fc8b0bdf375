package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
)

type ApplyPaymentRequest struct {
	InvoiceID     string
	CitizenID     string
	Amount        decimal.Decimal
	PaymentMethod string
	UserID        string
}

type ApplyPaymentResponse struct {
	Payment Payment                        `json:"payment"`
	Invoice invoicedomain.RecurringInvoice `json:"invoice"`
}

type ListPaymentRequest struct {
	InvoiceID string
}

type ListPaymentResponse struct {
	Payments []Payment `json:"payments"`
}

type Service interface {
	Apply(context.Context, ApplyPaymentRequest) (ApplyPaymentResponse, error)
	ListByInvoice(context.Context, ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidMethod      = errors.New("invalid_method")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvoiceAlreadyPaid = errors.New("invoice_already_paid")
	ErrCitizenNotFound    = errors.New("citizen_not_found")
	ErrCitizenMismatch    = errors.New("citizen_mismatch")
)
