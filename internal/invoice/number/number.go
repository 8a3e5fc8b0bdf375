// Package number builds the short human-readable invoice and payment codes.
package number

import (
	"fmt"
	"strconv"
	"time"
)

// ForPlan builds the invoice number used by the plan-driven call sites:
// "FC" + zero-padded month + zero-padded payment day + the last two
// characters of the citizen id. Deterministic for identical inputs.
func ForPlan(paymentDay int, paymentDate time.Time, citizenID string) string {
	return fmt.Sprintf("FC%02d%02d%s", int(paymentDate.Month()), paymentDay, lastN(citizenID, 2))
}

// ForScheduledRun builds the variant used by the scheduled generator:
// "FC-" followed by the first character of each of year, month, day,
// hour and minute. Each component is truncated to a single character,
// so collisions within an hour are frequent. Kept as-is to match the
// numbers already issued by the legacy generator.
func ForScheduledRun(t time.Time) string {
	return "FC-" +
		firstChar(t.Year()) +
		firstChar(int(t.Month())) +
		firstChar(t.Day()) +
		firstChar(t.Hour()) +
		firstChar(t.Minute())
}

// ForPayment builds the payment number: "PAG" + the last four
// characters of the invoice number.
func ForPayment(invoiceNumber string) string {
	return "PAG" + lastN(invoiceNumber, 4)
}

func firstChar(component int) string {
	s := strconv.Itoa(component)
	return s[:1]
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
