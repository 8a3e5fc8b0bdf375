package debt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/valnet/valdesk-central/internal/clock"
	"github.com/valnet/valdesk-central/internal/config"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidID = errors.New("invalid_id")
)

type GetDebtRequest struct {
	CitizenID string
}

type GetDebtResponse struct {
	CitizenID string `json:"citizen_id"`
	Breakdown
	HorizonDays int `json:"horizon_days"`
}

type Service interface {
	GetDebt(context.Context, GetDebtRequest) (GetDebtResponse, error)
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Billing     *config.BillingConfigHolder
	InvoiceRepo invoicedomain.Repository
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	billing     *config.BillingConfigHolder
	invoiceRepo invoicedomain.Repository
}

func New(p Params) Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("debt.service"),
		clock:       p.Clock,
		billing:     p.Billing,
		invoiceRepo: p.InvoiceRepo,
	}
}

func (s *service) GetDebt(ctx context.Context, req GetDebtRequest) (GetDebtResponse, error) {
	citizenID, err := snowflake.ParseString(strings.TrimSpace(req.CitizenID))
	if err != nil || citizenID == 0 {
		return GetDebtResponse{}, ErrInvalidID
	}

	invoices, err := s.invoiceRepo.ListByCitizen(ctx, s.db, citizenID)
	if err != nil {
		return GetDebtResponse{}, err
	}

	horizonDays := s.billing.Get().DebtHorizonDays
	now := s.clock.Now()
	breakdown := Aggregate(citizenID, invoices, now, time.Duration(horizonDays)*24*time.Hour)
	if breakdown.Skipped > 0 {
		s.log.Warn("invoices skipped during debt aggregation",
			zap.String("citizen_id", citizenID.String()),
			zap.Int("skipped", breakdown.Skipped),
		)
	}

	return GetDebtResponse{
		CitizenID:   citizenID.String(),
		Breakdown:   breakdown,
		HorizonDays: horizonDays,
	}, nil
}
