package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/clock"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/payment/domain"
	"github.com/valnet/valdesk-central/internal/payment/repository"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	citizen citizendomain.Citizen
	invoice invoicedomain.RecurringInvoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&citizendomain.Citizen{},
		&invoicedomain.RecurringInvoice{},
		&domain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))
	now := fake.Now()

	citizen := citizendomain.Citizen{
		ID:        node.Generate(),
		FirstName: "Juan",
		LastName:  "Mercedes",
		Cedula:    "40212345678",
		TotalDebt: decimal.NewFromInt(800),
		IsDebtor:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&citizen).Error)

	invoice := invoicedomain.RecurringInvoice{
		ID:                  node.Generate(),
		ServiceAssignmentID: node.Generate(),
		CitizenID:           citizen.ID,
		InvoiceNumber:       "FC030578",
		Amount:              decimal.NewFromInt(150),
		StartDate:           now.AddDate(0, -1, 0),
		DueDate:             now.AddDate(0, 0, -5),
		Status:              invoicedomain.InvoiceStatusPending,
		IsOverdue:           true,
		DaysOverdue:         5,
		CycleKey:            invoicedomain.CycleKeyFor(now.AddDate(0, -1, 0)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, db.Create(&invoice).Error)

	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: fake,
		repo:  repository.Provide(),
	}

	return &fixture{
		svc:     svc,
		db:      db,
		node:    node,
		clock:   fake,
		citizen: citizen,
		invoice: invoice,
	}
}

func TestApplyPaymentHappyPath(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		CitizenID:     f.citizen.ID.String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "cash",
		UserID:        f.node.Generate().String(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusConfirmed, resp.Payment.Status)
	assert.Equal(t, domain.PaymentMethodCash, resp.Payment.PaymentMethod)
	assert.Equal(t, "PAG0578", resp.Payment.PaymentNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, resp.Invoice.Status)
	assert.False(t, resp.Invoice.IsOverdue)
	assert.Zero(t, resp.Invoice.DaysOverdue)
	require.NotNil(t, resp.Invoice.PaymentID)
	assert.Equal(t, resp.Payment.ID, *resp.Invoice.PaymentID)

	var invoice invoicedomain.RecurringInvoice
	require.NoError(t, f.db.First(&invoice, "id = ?", f.invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)

	var citizen citizendomain.Citizen
	require.NoError(t, f.db.First(&citizen, "id = ?", f.citizen.ID).Error)
	assert.True(t, citizen.TotalDebt.Equal(decimal.NewFromInt(650)), "total_debt = %s", citizen.TotalDebt)
}

func TestApplyPaymentAlreadyPaid(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "CASH",
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)

	// The second attempt must not touch the balance again.
	var citizen citizendomain.Citizen
	require.NoError(t, f.db.First(&citizen, "id = ?", f.citizen.ID).Error)
	assert.True(t, citizen.TotalDebt.Equal(decimal.NewFromInt(650)), "total_debt = %s", citizen.TotalDebt)

	var count int64
	require.NoError(t, f.db.Model(&domain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApplyPaymentInvoiceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.node.Generate().String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "CASH",
	})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestApplyPaymentCitizenMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		CitizenID:     f.node.Generate().String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "CASH",
	})
	assert.ErrorIs(t, err, domain.ErrCitizenMismatch)

	// Nothing may be written when the request is rejected.
	var count int64
	require.NoError(t, f.db.Model(&domain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestApplyPaymentValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     "not-a-number",
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "CASH",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        decimal.Zero,
		PaymentMethod: "CASH",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        decimal.NewFromInt(150),
		PaymentMethod: "BARTER",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
}

func TestApplyPaymentPartialAmountCanOverdraw(t *testing.T) {
	// The balance decrement applies the paid amount verbatim; overpaying
	// drives the stored debt negative rather than clamping at zero.
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), domain.ApplyPaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        decimal.NewFromInt(1000),
		PaymentMethod: "TRANSFER",
	})
	require.NoError(t, err)

	var citizen citizendomain.Citizen
	require.NoError(t, f.db.First(&citizen, "id = ?", f.citizen.ID).Error)
	assert.True(t, citizen.TotalDebt.Equal(decimal.NewFromInt(-200)), "total_debt = %s", citizen.TotalDebt)
}
