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
	citizenrepository "github.com/valnet/valdesk-central/internal/citizen/repository"
	"github.com/valnet/valdesk-central/internal/clock"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	invoicerepository "github.com/valnet/valdesk-central/internal/invoice/repository"
	"github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	"github.com/valnet/valdesk-central/internal/serviceassignment/repository"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node, citizendomain.Citizen) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&citizendomain.Citizen{},
		&domain.ServiceAssignment{},
		&invoicedomain.RecurringInvoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	now := fake.Now()

	citizen := citizendomain.Citizen{
		ID:        node.Generate(),
		FirstName: "Maria",
		LastName:  "Santos",
		Cedula:    "40212345678",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&citizen).Error)

	svc := &Service{
		db:          db,
		log:         zaptest.NewLogger(t),
		genID:       node,
		clock:       fake,
		repo:        repository.Provide(),
		citizenRepo: citizenrepository.Provide(),
		invoiceRepo: invoicerepository.Provide(),
	}
	return svc, db, node, citizen
}

func TestCreateAssignmentWritesFirstInvoice(t *testing.T) {
	svc, db, _, citizen := newTestService(t)

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	resp, err := svc.Create(context.Background(), domain.CreateAssignmentRequest{
		CitizenID:            citizen.ID.String(),
		ServiceName:          "Internet 50Mb",
		MonthlyPaymentAmount: decimal.NewFromInt(1200),
		PaymentDay:           5,
		PaymentNumbers:       12,
		StartDate:            start,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AssignmentStatusActive, resp.Assignment.Status)
	assert.Equal(t, citizen.ID, resp.Assignment.CitizenID)

	firstDue := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, resp.FirstInvoice.DueDate.Equal(firstDue), "due_date = %s", resp.FirstInvoice.DueDate)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, resp.FirstInvoice.Status)
	assert.Equal(t, invoicedomain.CycleKeyFor(firstDue), resp.FirstInvoice.CycleKey)
	// "FC" + month + payment day + last two digits of the citizen id.
	assert.Equal(t, "FC0305"+citizen.ID.String()[len(citizen.ID.String())-2:], resp.FirstInvoice.InvoiceNumber)

	var stored invoicedomain.RecurringInvoice
	require.NoError(t, db.First(&stored, "service_assignment_id = ?", resp.Assignment.ID).Error)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(1200)), "amount = %s", stored.Amount)
	require.NotNil(t, stored.NextInvoiceDate)
	assert.True(t, stored.NextInvoiceDate.Equal(firstDue.AddDate(0, 1, 0)))
}

func TestCreateAssignmentFirstDueRollsToNextMonth(t *testing.T) {
	svc, _, _, citizen := newTestService(t)

	// Starting after the payment day pushes the first due date a month out.
	start := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	resp, err := svc.Create(context.Background(), domain.CreateAssignmentRequest{
		CitizenID:            citizen.ID.String(),
		ServiceName:          "Internet 50Mb",
		MonthlyPaymentAmount: decimal.NewFromInt(1200),
		PaymentDay:           5,
		StartDate:            start,
	})
	require.NoError(t, err)

	firstDue := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, resp.FirstInvoice.DueDate.Equal(firstDue), "due_date = %s", resp.FirstInvoice.DueDate)
}

func TestCreateAssignmentValidation(t *testing.T) {
	svc, _, node, citizen := newTestService(t)
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		req  domain.CreateAssignmentRequest
		want error
	}{
		{
			name: "bad citizen id",
			req:  domain.CreateAssignmentRequest{CitizenID: "abc", ServiceName: "x", MonthlyPaymentAmount: decimal.NewFromInt(1), PaymentDay: 5, StartDate: start},
			want: domain.ErrInvalidCitizen,
		},
		{
			name: "unknown citizen",
			req:  domain.CreateAssignmentRequest{CitizenID: node.Generate().String(), ServiceName: "x", MonthlyPaymentAmount: decimal.NewFromInt(1), PaymentDay: 5, StartDate: start},
			want: domain.ErrCitizenNotFound,
		},
		{
			name: "empty service",
			req:  domain.CreateAssignmentRequest{CitizenID: citizen.ID.String(), MonthlyPaymentAmount: decimal.NewFromInt(1), PaymentDay: 5, StartDate: start},
			want: domain.ErrInvalidService,
		},
		{
			name: "zero amount",
			req:  domain.CreateAssignmentRequest{CitizenID: citizen.ID.String(), ServiceName: "x", PaymentDay: 5, StartDate: start},
			want: domain.ErrInvalidAmount,
		},
		{
			name: "payment day out of range",
			req:  domain.CreateAssignmentRequest{CitizenID: citizen.ID.String(), ServiceName: "x", MonthlyPaymentAmount: decimal.NewFromInt(1), PaymentDay: 31, StartDate: start},
			want: domain.ErrInvalidPaymentDay,
		},
		{
			name: "missing start date",
			req:  domain.CreateAssignmentRequest{CitizenID: citizen.ID.String(), ServiceName: "x", MonthlyPaymentAmount: decimal.NewFromInt(1), PaymentDay: 5},
			want: domain.ErrInvalidStartDate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateAssignmentStatus(t *testing.T) {
	svc, _, _, citizen := newTestService(t)

	resp, err := svc.Create(context.Background(), domain.CreateAssignmentRequest{
		CitizenID:            citizen.ID.String(),
		ServiceName:          "Internet 50Mb",
		MonthlyPaymentAmount: decimal.NewFromInt(1200),
		PaymentDay:           5,
		StartDate:            time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), domain.UpdateAssignmentStatusRequest{
		ID:     resp.Assignment.ID.String(),
		Status: "SUSPENDED",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusSuspended, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), domain.UpdateAssignmentStatusRequest{
		ID:     resp.Assignment.ID.String(),
		Status: "BROKEN",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
