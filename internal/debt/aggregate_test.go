package debt

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
)

func invoiceFor(citizenID snowflake.ID, amount int64, due time.Time, status invoicedomain.InvoiceStatus) *invoicedomain.RecurringInvoice {
	return &invoicedomain.RecurringInvoice{
		CitizenID: citizenID,
		Amount:    decimal.NewFromInt(amount),
		DueDate:   due,
		Status:    status,
	}
}

func TestAggregateOverdueAndUpcoming(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	horizon := 15 * 24 * time.Hour
	citizenID := snowflake.ID(1001)

	invoices := []*invoicedomain.RecurringInvoice{
		invoiceFor(citizenID, 500, now.AddDate(0, 0, -20), invoicedomain.InvoiceStatusPending),
		invoiceFor(citizenID, 300, now.AddDate(0, 0, -1), invoicedomain.InvoiceStatusPending),
		invoiceFor(citizenID, 200, now.AddDate(0, 0, 10), invoicedomain.InvoiceStatusPending),
		// Past the horizon, excluded entirely.
		invoiceFor(citizenID, 900, now.AddDate(0, 0, 30), invoicedomain.InvoiceStatusPending),
	}

	got := Aggregate(citizenID, invoices, now, horizon)

	assert.True(t, got.Overdue.Equal(decimal.NewFromInt(800)), "overdue = %s", got.Overdue)
	assert.True(t, got.Upcoming.Equal(decimal.NewFromInt(200)), "upcoming = %s", got.Upcoming)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(1000)), "total = %s", got.Total)
	assert.Zero(t, got.Skipped)
}

func TestAggregateIgnoresStatusForLegacyTotal(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	horizon := 15 * 24 * time.Hour
	citizenID := snowflake.ID(1001)

	invoices := []*invoicedomain.RecurringInvoice{
		invoiceFor(citizenID, 500, now.AddDate(0, 0, -5), invoicedomain.InvoiceStatusPaid),
		invoiceFor(citizenID, 300, now.AddDate(0, 0, 5), invoicedomain.InvoiceStatusPending),
	}

	got := Aggregate(citizenID, invoices, now, horizon)

	assert.True(t, got.Total.Equal(decimal.NewFromInt(800)), "total = %s", got.Total)
	assert.True(t, got.PendingOnly.Equal(decimal.NewFromInt(300)), "pending_only = %s", got.PendingOnly)
}

func TestAggregateBoundaries(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	horizon := 15 * 24 * time.Hour
	citizenID := snowflake.ID(7)

	invoices := []*invoicedomain.RecurringInvoice{
		// Due exactly now counts as upcoming, not overdue.
		invoiceFor(citizenID, 100, now, invoicedomain.InvoiceStatusPending),
		// Due exactly at the horizon edge is still included.
		invoiceFor(citizenID, 50, now.Add(horizon), invoicedomain.InvoiceStatusPending),
	}

	got := Aggregate(citizenID, invoices, now, horizon)

	assert.True(t, got.Overdue.IsZero(), "overdue = %s", got.Overdue)
	assert.True(t, got.Upcoming.Equal(decimal.NewFromInt(150)), "upcoming = %s", got.Upcoming)
}

func TestAggregateSkipsZeroDueDatesAndOtherCitizens(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	horizon := 15 * 24 * time.Hour
	citizenID := snowflake.ID(1)

	invoices := []*invoicedomain.RecurringInvoice{
		invoiceFor(citizenID, 100, time.Time{}, invoicedomain.InvoiceStatusPending),
		invoiceFor(snowflake.ID(2), 400, now.AddDate(0, 0, -1), invoicedomain.InvoiceStatusPending),
		nil,
		invoiceFor(citizenID, 250, now.AddDate(0, 0, -2), invoicedomain.InvoiceStatusPending),
	}

	got := Aggregate(citizenID, invoices, now, horizon)

	assert.Equal(t, 1, got.Skipped)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(250)), "total = %s", got.Total)
}
