package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/valnet/valdesk-central/internal/clock"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/invoice/number"
	"github.com/valnet/valdesk-central/internal/payment/domain"
	"github.com/valnet/valdesk-central/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Apply records a payment against one invoice: insert the CONFIRMED
// payment row, flip the invoice to PAID, and decrement the citizen's
// running balance. All steps run in a single transaction.
func (s *Service) Apply(ctx context.Context, req domain.ApplyPaymentRequest) (domain.ApplyPaymentResponse, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.ApplyPaymentResponse{}, domain.ErrInvalidID
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		return domain.ApplyPaymentResponse{}, domain.ErrInvalidAmount
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod)))
	if !domain.ValidMethod(method) {
		return domain.ApplyPaymentResponse{}, domain.ErrInvalidMethod
	}

	var requestCitizenID snowflake.ID
	if trimmed := strings.TrimSpace(req.CitizenID); trimmed != "" {
		requestCitizenID, err = snowflake.ParseString(trimmed)
		if err != nil || requestCitizenID == 0 {
			return domain.ApplyPaymentResponse{}, domain.ErrInvalidID
		}
	}

	createdBy := s.actingUser(ctx, req.UserID)
	now := s.clock.Now()

	var resp domain.ApplyPaymentResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindInvoiceForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return domain.ErrInvoiceAlreadyPaid
		}
		if requestCitizenID != 0 && requestCitizenID != invoice.CitizenID {
			return domain.ErrCitizenMismatch
		}

		payment := domain.Payment{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			CitizenID:     invoice.CitizenID,
			PaymentNumber: number.ForPayment(invoice.InvoiceNumber),
			Amount:        req.Amount,
			PaymentMethod: method,
			Status:        domain.PaymentStatusConfirmed,
			PaidAt:        now,
			CreatedBy:     createdBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		flipped, err := s.repo.MarkInvoicePaid(ctx, tx, invoice.ID, payment.ID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return domain.ErrInvoiceAlreadyPaid
		}

		citizen, err := s.repo.FindCitizenForUpdate(ctx, tx, invoice.CitizenID)
		if err != nil {
			return err
		}
		if citizen == nil {
			return domain.ErrCitizenNotFound
		}
		if err := s.repo.DecrementCitizenDebt(ctx, tx, citizen.ID, req.Amount); err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaymentDate = &now
		invoice.PaymentID = &payment.ID
		invoice.IsOverdue = false
		invoice.DaysOverdue = 0
		invoice.UpdatedAt = now

		resp = domain.ApplyPaymentResponse{
			Payment: payment,
			Invoice: *invoice,
		}
		return nil
	})
	if err != nil {
		return domain.ApplyPaymentResponse{}, err
	}

	s.log.Info("payment applied",
		zap.String("invoice_id", resp.Invoice.ID.String()),
		zap.String("payment_id", resp.Payment.ID.String()),
		zap.String("payment_number", resp.Payment.PaymentNumber),
		zap.String("amount", resp.Payment.Amount.String()),
	)

	return resp, nil
}

func (s *Service) ListByInvoice(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.ListPaymentResponse{}, domain.ErrInvalidID
	}

	items, err := s.repo.ListByInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	return domain.ListPaymentResponse{Payments: payments}, nil
}

func (s *Service) actingUser(ctx context.Context, requested string) snowflake.ID {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		if id, err := snowflake.ParseString(trimmed); err == nil {
			return id
		}
	}
	if id, ok := usercontext.UserIDFromContext(ctx); ok {
		return id
	}
	return 0
}
