package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
)

type CreateCitizenRequest struct {
	FirstName string
	LastName  string
	Cedula    string
	Email     string
	Phone     string
	Address   string
	City      string
	Lat       *float64
	Lng       *float64
}

type GetCitizenRequest struct {
	ID string
}

type ListCitizenRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Cedula    string
	City      string
	IsDebtor  *bool
}

type ListCitizenFilter struct {
	Name     string
	Cedula   string
	City     string
	IsDebtor *bool
}

type ListCitizenResponse struct {
	pagination.PageInfo
	Citizens []Citizen `json:"citizens"`
}

type RecalculateDebtRequest struct {
	ID string
}

// DebtRecalculation reports the repaired running balance.
type DebtRecalculation struct {
	CitizenID string          `json:"citizen_id"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	IsDebtor  bool            `json:"is_debtor"`
}

type Service interface {
	Create(context.Context, CreateCitizenRequest) (Citizen, error)
	GetByID(context.Context, GetCitizenRequest) (Citizen, error)
	List(context.Context, ListCitizenRequest) (ListCitizenResponse, error)
	RecalculateDebt(context.Context, RecalculateDebtRequest) (DebtRecalculation, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidCedula = errors.New("invalid_cedula")
	ErrCedulaTaken   = errors.New("cedula_taken")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
