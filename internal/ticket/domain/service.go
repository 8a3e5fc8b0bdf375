package domain

import (
	"context"
	"errors"
)

type CreateTicketRequest struct {
	Subject       string
	Description   string
	ReporterName  string
	ReporterEmail string
	Metadata      map[string]any
}

type Service interface {
	Create(context.Context, CreateTicketRequest) (Ticket, error)
}

var (
	ErrInvalidSubject = errors.New("invalid_subject")
)
