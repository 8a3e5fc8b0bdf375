package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
)

type CreateAssignmentRequest struct {
	CitizenID            string
	ServiceName          string
	MonthlyPaymentAmount decimal.Decimal
	PaymentDay           int
	PaymentNumbers       int
	StartDate            time.Time
}

// CreateAssignmentResponse carries the assignment together with the
// first cycle's invoice, created in the same transaction.
type CreateAssignmentResponse struct {
	Assignment   ServiceAssignment              `json:"assignment"`
	FirstInvoice invoicedomain.RecurringInvoice `json:"first_invoice"`
}

type GetAssignmentRequest struct {
	ID string
}

type ListAssignmentRequest struct {
	CitizenID string
}

type ListAssignmentResponse struct {
	Assignments []ServiceAssignment `json:"assignments"`
}

type UpdateAssignmentStatusRequest struct {
	ID     string
	Status string
}

type Service interface {
	Create(context.Context, CreateAssignmentRequest) (CreateAssignmentResponse, error)
	GetByID(context.Context, GetAssignmentRequest) (ServiceAssignment, error)
	ListByCitizen(context.Context, ListAssignmentRequest) (ListAssignmentResponse, error)
	UpdateStatus(context.Context, UpdateAssignmentStatusRequest) (ServiceAssignment, error)
}

var (
	ErrInvalidCitizen    = errors.New("invalid_citizen")
	ErrCitizenNotFound   = errors.New("citizen_not_found")
	ErrInvalidService    = errors.New("invalid_service")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidPaymentDay = errors.New("invalid_payment_day")
	ErrInvalidStartDate  = errors.New("invalid_start_date")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrNotFound          = errors.New("not_found")
)
