package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/clock"
	"github.com/valnet/valdesk-central/internal/config"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/invoice/number"
	obsmetrics "github.com/valnet/valdesk-central/internal/observability/metrics"
	serviceassignmentdomain "github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	t.Cleanup(restore)
	obsmetrics.ResetSchedulerMetricsForTest()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&citizendomain.Citizen{},
		&serviceassignmentdomain.ServiceAssignment{},
		&invoicedomain.RecurringInvoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))

	sched, err := New(Params{
		DB:      db,
		Log:     zaptest.NewLogger(t),
		GenID:   node,
		Clock:   fake,
		Cfg:     Config{BatchSize: 2},
		Billing: config.StaticBillingConfigHolder(config.DefaultBillingConfig()),
	})
	require.NoError(t, err)
	return sched, db, fake, node
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func seedPendingInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, citizenID snowflake.ID, due time.Time) invoicedomain.RecurringInvoice {
	t.Helper()
	invoice := invoicedomain.RecurringInvoice{
		ID:                  node.Generate(),
		ServiceAssignmentID: node.Generate(),
		CitizenID:           citizenID,
		InvoiceNumber:       "FC030578",
		Amount:              decimal.NewFromInt(500),
		StartDate:           due.AddDate(0, -1, 0),
		DueDate:             due,
		Status:              invoicedomain.InvoiceStatusPending,
		CycleKey:            invoicedomain.CycleKeyFor(due),
		CreatedAt:           due,
		UpdatedAt:           due,
	}
	require.NoError(t, db.Create(&invoice).Error)
	return invoice
}

func TestGenerateInvoicesRollsEveryPendingInvoice(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()
	citizenID := node.Generate()

	sources := make([]invoicedomain.RecurringInvoice, 0, 3)
	for i := 0; i < 3; i++ {
		sources = append(sources, seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, -1, -i)))
	}

	require.NoError(t, sched.runGenerateInvoices(context.Background()))

	var generated []invoicedomain.RecurringInvoice
	require.NoError(t, db.Where("cycle_key = ?", invoicedomain.CycleKeyFor(now)).Find(&generated).Error)
	require.Len(t, generated, 3)

	for _, invoice := range generated {
		assert.Equal(t, invoicedomain.InvoiceStatusPending, invoice.Status)
		assert.Equal(t, number.ForScheduledRun(now), invoice.InvoiceNumber)
		assert.True(t, invoice.DueDate.Equal(now), "due_date = %s", invoice.DueDate)
		assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(500)), "amount = %s", invoice.Amount)
	}

	// Source rows get stamped with the rollover dates.
	for _, src := range sources {
		var reloaded invoicedomain.RecurringInvoice
		require.NoError(t, db.First(&reloaded, "id = ?", src.ID).Error)
		require.NotNil(t, reloaded.LastInvoiceDate)
		require.NotNil(t, reloaded.NextInvoiceDate)
		assert.True(t, reloaded.LastInvoiceDate.Equal(now))
		assert.True(t, reloaded.NextInvoiceDate.Equal(now.AddDate(0, 1, 0)))
	}
}

func TestGenerateInvoicesIsIdempotentWithinADay(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()
	citizenID := node.Generate()

	seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, -1, 0))

	require.NoError(t, sched.runGenerateInvoices(context.Background()))
	require.NoError(t, sched.runGenerateInvoices(context.Background()))

	var count int64
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("cycle_key = ?", invoicedomain.CycleKeyFor(now)).
		Count(&count).Error)
	assert.EqualValues(t, 1, count, "a rerun within the same day must not duplicate the cycle")
}

func TestGenerateInvoicesSkipsPaidInvoices(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()
	citizenID := node.Generate()

	paid := seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, -2, 0))
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("id = ?", paid.ID).
		Update("status", invoicedomain.InvoiceStatusPaid).Error)

	require.NoError(t, sched.runGenerateInvoices(context.Background()))

	var count int64
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("cycle_key = ?", invoicedomain.CycleKeyFor(now)).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateInvoicesIgnoresAssignmentStatus(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()
	citizenID := node.Generate()

	// Rollover is driven by PENDING invoices alone; a suspended
	// assignment's open cycle still rolls forward.
	suspended := serviceassignmentdomain.ServiceAssignment{
		ID:                   node.Generate(),
		CitizenID:            citizenID,
		ServiceName:          "internet",
		MonthlyPaymentAmount: decimal.NewFromInt(500),
		PaymentDay:           5,
		StartDate:            now.AddDate(0, -3, 0),
		Status:               serviceassignmentdomain.AssignmentStatusSuspended,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, db.Create(&suspended).Error)

	source := seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, -1, 0))
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("id = ?", source.ID).
		Update("service_assignment_id", suspended.ID).Error)

	require.NoError(t, sched.runGenerateInvoices(context.Background()))

	var count int64
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("service_assignment_id = ? AND cycle_key = ?", suspended.ID, invoicedomain.CycleKeyFor(now)).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOverdueSweepFlagsPastDueInvoices(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()
	citizenID := node.Generate()

	overdue := seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, 0, -5))
	future := seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, 0, 5))
	paid := seedPendingInvoice(t, db, node, citizenID, now.AddDate(0, 0, -10))
	require.NoError(t, db.Model(&invoicedomain.RecurringInvoice{}).
		Where("id = ?", paid.ID).
		Update("status", invoicedomain.InvoiceStatusPaid).Error)

	require.NoError(t, sched.runOverdueSweep(context.Background()))

	// Fresh destination per lookup: gorm folds a populated primary key
	// into the next query's conditions.
	var gotOverdue invoicedomain.RecurringInvoice
	require.NoError(t, db.First(&gotOverdue, "id = ?", overdue.ID).Error)
	assert.True(t, gotOverdue.IsOverdue)
	assert.Equal(t, 5, gotOverdue.DaysOverdue)

	var gotFuture invoicedomain.RecurringInvoice
	require.NoError(t, db.First(&gotFuture, "id = ?", future.ID).Error)
	assert.False(t, gotFuture.IsOverdue)

	var gotPaid invoicedomain.RecurringInvoice
	require.NoError(t, db.First(&gotPaid, "id = ?", paid.ID).Error)
	assert.False(t, gotPaid.IsOverdue)
}

func TestDebtorFlagsRecompute(t *testing.T) {
	sched, db, fake, node := newTestScheduler(t)
	now := fake.Now()

	debtor := citizendomain.Citizen{ID: node.Generate(), FirstName: "Ana", Cedula: "001", CreatedAt: now, UpdatedAt: now}
	clean := citizendomain.Citizen{ID: node.Generate(), FirstName: "Luis", Cedula: "002", IsDebtor: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&debtor).Error)
	require.NoError(t, db.Create(&clean).Error)

	seedPendingInvoice(t, db, node, debtor.ID, now.AddDate(0, 0, -3))

	require.NoError(t, sched.runDebtorFlags(context.Background()))

	var gotDebtor citizendomain.Citizen
	require.NoError(t, db.First(&gotDebtor, "id = ?", debtor.ID).Error)
	assert.True(t, gotDebtor.IsDebtor)

	var gotClean citizendomain.Citizen
	require.NoError(t, db.First(&gotClean, "id = ?", clean.ID).Error)
	assert.False(t, gotClean.IsDebtor)
}

func TestRunJobTreatsDeadlineAsSoftTimeout(t *testing.T) {
	sched, _, _, _ := newTestScheduler(t)

	err := sched.runJob(context.Background(), "slow_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)

	registry, ok := prometheus.DefaultGatherer.(*prometheus.Registry)
	require.True(t, ok)
	got := getCounterValue(t, registry, "valdesk_scheduler_job_timeouts_total", map[string]string{
		"service": "valdesk",
		"env":     "unknown",
		"job":     "slow_job",
	})
	assert.Equal(t, float64(1), got)
}

func TestRunOnceJoinsJobErrors(t *testing.T) {
	sched, db, _, _ := newTestScheduler(t)

	// Dropping the table forces every job to fail so RunOnce surfaces it.
	require.NoError(t, db.Migrator().DropTable(&invoicedomain.RecurringInvoice{}))

	err := sched.RunOnce(context.Background())
	assert.Error(t, err)
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if metricMatchesLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func metricMatchesLabels(metric *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for name, value := range labels {
		if got[name] != value {
			return false
		}
	}
	return true
}
