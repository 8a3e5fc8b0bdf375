package number

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForPlanFormat(t *testing.T) {
	paymentDate := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	got := ForPlan(5, paymentDate, "40212345678")
	assert.Equal(t, "FC030578", got)
	assert.Regexp(t, regexp.MustCompile(`^FC\d{2}\d{2}.{2}$`), got)
}

func TestForPlanZeroPadsComponents(t *testing.T) {
	paymentDate := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "FC010298", ForPlan(2, paymentDate, "00198"))
}

func TestForPlanShortCitizenID(t *testing.T) {
	paymentDate := time.Date(2024, time.December, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "FC12287", ForPlan(28, paymentDate, "7"))
}

func TestForPlanDeterministic(t *testing.T) {
	paymentDate := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	first := ForPlan(10, paymentDate, "40298765432")
	second := ForPlan(10, paymentDate, "40298765432")
	assert.Equal(t, first, second)
}

func TestForScheduledRunTruncatesEachComponent(t *testing.T) {
	// 2024-11-25 13:45 -> year "2", month "1", day "2", hour "1", minute "4".
	at := time.Date(2024, time.November, 25, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, "FC-21214", ForScheduledRun(at))
}

func TestForScheduledRunSingleDigitComponents(t *testing.T) {
	at := time.Date(2024, time.March, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "FC-23597", ForScheduledRun(at))
}

func TestForScheduledRunCollidesWithinHour(t *testing.T) {
	// The truncated format cannot distinguish minutes 40 and 45.
	a := ForScheduledRun(time.Date(2024, time.November, 25, 13, 40, 0, 0, time.UTC))
	b := ForScheduledRun(time.Date(2024, time.November, 25, 13, 45, 0, 0, time.UTC))
	assert.Equal(t, a, b)
}

func TestForPayment(t *testing.T) {
	assert.Equal(t, "PAG0578", ForPayment("FC030578"))
	assert.Equal(t, "PAG-214", ForPayment("FC-214"))
	assert.Equal(t, "PAGFC", ForPayment("FC"))
}
