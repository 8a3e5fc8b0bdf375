package domain

import (
	"context"
	"errors"
	"time"

	"github.com/valnet/valdesk-central/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	PageToken string
	PageSize  int32
	CitizenID string
	Status    string
	DueFrom   *time.Time
	DueTo     *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []RecurringInvoice `json:"invoices"`
}

type GetInvoiceRequest struct {
	ID string
}

type Service interface {
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(context.Context, GetInvoiceRequest) (RecurringInvoice, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotFound      = errors.New("not_found")
)
