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
	"github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/citizen/repository"
	"github.com/valnet/valdesk-central/internal/clock"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Citizen{},
		&invoicedomain.RecurringInvoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))

	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: fake,
		repo:  repository.Provide(),
	}
	return svc, db, node, fake
}

func TestCreateCitizen(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), domain.CreateCitizenRequest{
		FirstName: "  Maria ",
		LastName:  "Santos",
		Cedula:    "40212345678",
		City:      "Santiago",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", created.FirstName)
	assert.False(t, created.IsDebtor)
	assert.True(t, created.TotalDebt.IsZero())

	_, err = svc.Create(context.Background(), domain.CreateCitizenRequest{
		FirstName: "Otra",
		Cedula:    "40212345678",
	})
	assert.ErrorIs(t, err, domain.ErrCedulaTaken)
}

func TestCreateCitizenValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateCitizenRequest{Cedula: "001"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(context.Background(), domain.CreateCitizenRequest{FirstName: "Ana"})
	assert.ErrorIs(t, err, domain.ErrInvalidCedula)
}

func TestRecalculateDebtFromPendingInvoices(t *testing.T) {
	svc, db, node, fake := newTestService(t)
	now := fake.Now()

	created, err := svc.Create(context.Background(), domain.CreateCitizenRequest{
		FirstName: "Maria",
		Cedula:    "40212345678",
	})
	require.NoError(t, err)

	// Drift the stored balance away from the invoice truth.
	require.NoError(t, db.Model(&domain.Citizen{}).
		Where("id = ?", created.ID).
		Update("total_debt", decimal.NewFromInt(9999)).Error)

	amounts := []int64{500, 300}
	for i, amount := range amounts {
		invoice := invoicedomain.RecurringInvoice{
			ID:                  node.Generate(),
			ServiceAssignmentID: node.Generate(),
			CitizenID:           created.ID,
			InvoiceNumber:       "FC000000",
			Amount:              decimal.NewFromInt(amount),
			StartDate:           now.AddDate(0, -1, 0),
			DueDate:             now.AddDate(0, 0, -i),
			Status:              invoicedomain.InvoiceStatusPending,
			CycleKey:            invoicedomain.CycleKeyFor(now.AddDate(0, 0, -i)),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		require.NoError(t, db.Create(&invoice).Error)
	}
	paid := invoicedomain.RecurringInvoice{
		ID:                  node.Generate(),
		ServiceAssignmentID: node.Generate(),
		CitizenID:           created.ID,
		InvoiceNumber:       "FC000001",
		Amount:              decimal.NewFromInt(700),
		StartDate:           now.AddDate(0, -2, 0),
		DueDate:             now.AddDate(0, -1, 0),
		Status:              invoicedomain.InvoiceStatusPaid,
		CycleKey:            invoicedomain.CycleKeyFor(now.AddDate(0, -1, 0)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, db.Create(&paid).Error)

	result, err := svc.RecalculateDebt(context.Background(), domain.RecalculateDebtRequest{ID: created.ID.String()})
	require.NoError(t, err)

	assert.True(t, result.TotalDebt.Equal(decimal.NewFromInt(800)), "total_debt = %s", result.TotalDebt)
	assert.True(t, result.IsDebtor)

	var reloaded domain.Citizen
	require.NoError(t, db.First(&reloaded, "id = ?", created.ID).Error)
	assert.True(t, reloaded.TotalDebt.Equal(decimal.NewFromInt(800)), "total_debt = %s", reloaded.TotalDebt)
	assert.True(t, reloaded.IsDebtor)
}

func TestRecalculateDebtUnknownCitizen(t *testing.T) {
	svc, _, node, _ := newTestService(t)

	_, err := svc.RecalculateDebt(context.Background(), domain.RecalculateDebtRequest{ID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RecalculateDebt(context.Background(), domain.RecalculateDebtRequest{ID: "garbage"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
