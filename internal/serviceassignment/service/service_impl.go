package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/clock"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/invoice/number"
	"github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CitizenRepo citizendomain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	citizenRepo citizendomain.Repository
	invoiceRepo invoicedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("serviceassignment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		citizenRepo: p.CitizenRepo,
		invoiceRepo: p.InvoiceRepo,
	}
}

// Create registers the assignment and materializes its first cycle
// invoice in the same transaction.
func (s *Service) Create(ctx context.Context, req domain.CreateAssignmentRequest) (domain.CreateAssignmentResponse, error) {
	citizenID, err := snowflake.ParseString(strings.TrimSpace(req.CitizenID))
	if err != nil || citizenID == 0 {
		return domain.CreateAssignmentResponse{}, domain.ErrInvalidCitizen
	}

	serviceName := strings.TrimSpace(req.ServiceName)
	if serviceName == "" {
		return domain.CreateAssignmentResponse{}, domain.ErrInvalidService
	}
	if !req.MonthlyPaymentAmount.GreaterThan(decimal.Zero) {
		return domain.CreateAssignmentResponse{}, domain.ErrInvalidAmount
	}
	if req.PaymentDay < 1 || req.PaymentDay > 28 {
		return domain.CreateAssignmentResponse{}, domain.ErrInvalidPaymentDay
	}
	if req.StartDate.IsZero() {
		return domain.CreateAssignmentResponse{}, domain.ErrInvalidStartDate
	}

	now := s.clock.Now()
	firstDue := firstDueDate(req.StartDate.UTC(), req.PaymentDay)

	assignment := domain.ServiceAssignment{
		ID:                   s.genID.Generate(),
		CitizenID:            citizenID,
		ServiceName:          serviceName,
		MonthlyPaymentAmount: req.MonthlyPaymentAmount,
		PaymentDay:           req.PaymentDay,
		PaymentNumbers:       req.PaymentNumbers,
		StartDate:            req.StartDate.UTC(),
		Status:               domain.AssignmentStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	nextDue := firstDue.AddDate(0, 1, 0)
	firstInvoice := invoicedomain.RecurringInvoice{
		ID:                  s.genID.Generate(),
		ServiceAssignmentID: assignment.ID,
		CitizenID:           citizenID,
		InvoiceNumber:       number.ForPlan(req.PaymentDay, firstDue, citizenID.String()),
		Amount:              req.MonthlyPaymentAmount,
		Description:         serviceName,
		StartDate:           assignment.StartDate,
		DueDate:             firstDue,
		Status:              invoicedomain.InvoiceStatusPending,
		NextInvoiceDate:     &nextDue,
		CycleKey:            invoicedomain.CycleKeyFor(firstDue),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		citizen, err := s.citizenRepo.FindByID(ctx, tx, citizenID)
		if err != nil {
			return err
		}
		if citizen == nil {
			return domain.ErrCitizenNotFound
		}

		if err := s.repo.Insert(ctx, tx, &assignment); err != nil {
			return err
		}
		return s.invoiceRepo.Insert(ctx, tx, &firstInvoice)
	})
	if err != nil {
		return domain.CreateAssignmentResponse{}, err
	}

	s.log.Info("service assignment created",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("citizen_id", citizenID.String()),
		zap.String("first_invoice_number", firstInvoice.InvoiceNumber),
	)

	return domain.CreateAssignmentResponse{
		Assignment:   assignment,
		FirstInvoice: firstInvoice,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAssignmentRequest) (domain.ServiceAssignment, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceAssignment{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceAssignment{}, err
	}
	if item == nil {
		return domain.ServiceAssignment{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) ListByCitizen(ctx context.Context, req domain.ListAssignmentRequest) (domain.ListAssignmentResponse, error) {
	citizenID, err := snowflake.ParseString(strings.TrimSpace(req.CitizenID))
	if err != nil || citizenID == 0 {
		return domain.ListAssignmentResponse{}, domain.ErrInvalidCitizen
	}

	items, err := s.repo.ListByCitizen(ctx, s.db, citizenID)
	if err != nil {
		return domain.ListAssignmentResponse{}, err
	}

	assignments := make([]domain.ServiceAssignment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		assignments = append(assignments, *item)
	}

	return domain.ListAssignmentResponse{Assignments: assignments}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateAssignmentStatusRequest) (domain.ServiceAssignment, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceAssignment{}, err
	}

	status := domain.AssignmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case domain.AssignmentStatusActive, domain.AssignmentStatusSuspended, domain.AssignmentStatusCancelled:
	default:
		return domain.ServiceAssignment{}, domain.ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, id, status)
	if err != nil {
		return domain.ServiceAssignment{}, err
	}
	if !updated {
		return domain.ServiceAssignment{}, domain.ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceAssignment{}, err
	}
	if item == nil {
		return domain.ServiceAssignment{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// firstDueDate returns the first occurrence of the payment day on or
// after the plan start date. Payment days are capped at 28 so every
// month has the target day.
func firstDueDate(start time.Time, paymentDay int) time.Time {
	due := time.Date(start.Year(), start.Month(), paymentDay, 0, 0, 0, 0, time.UTC)
	if due.Before(start) {
		due = due.AddDate(0, 1, 0)
	}
	return due
}
