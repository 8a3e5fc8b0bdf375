// Package debt computes the "amount currently owed or soon due" figure
// for a citizen from their recurring invoices.
package debt

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
)

// Breakdown is the result of one aggregation pass.
type Breakdown struct {
	Overdue  decimal.Decimal `json:"overdue"`
	Upcoming decimal.Decimal `json:"upcoming"`
	Total    decimal.Decimal `json:"total"`
	// PendingOnly is the same window restricted to PENDING invoices.
	// The legacy figure (Total) counts paid invoices too; this field
	// lets callers see both without changing the legacy number.
	PendingOnly decimal.Decimal `json:"pending_only"`
	// Skipped counts records excluded for a missing due date.
	Skipped int `json:"-"`
}

// Aggregate sums invoice amounts for the citizen where the due date is
// overdue (due < now) or upcoming (now <= due <= now+horizon). Invoice
// status is deliberately not consulted for the legacy totals; records
// with a zero due date are skipped, never fatal.
func Aggregate(citizenID snowflake.ID, invoices []*invoicedomain.RecurringInvoice, now time.Time, horizon time.Duration) Breakdown {
	result := Breakdown{
		Overdue:     decimal.Zero,
		Upcoming:    decimal.Zero,
		Total:       decimal.Zero,
		PendingOnly: decimal.Zero,
	}

	limit := now.Add(horizon)
	for _, invoice := range invoices {
		if invoice == nil || invoice.CitizenID != citizenID {
			continue
		}
		if invoice.DueDate.IsZero() {
			result.Skipped++
			continue
		}

		due := invoice.DueDate
		switch {
		case due.Before(now):
			result.Overdue = result.Overdue.Add(invoice.Amount)
		case !due.After(limit):
			result.Upcoming = result.Upcoming.Add(invoice.Amount)
		default:
			continue
		}

		result.Total = result.Total.Add(invoice.Amount)
		if invoice.Status == invoicedomain.InvoiceStatusPending {
			result.PendingOnly = result.PendingOnly.Add(invoice.Amount)
		}
	}

	return result
}
