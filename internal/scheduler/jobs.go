package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/valnet/valdesk-central/internal/invoice/domain"
	"github.com/valnet/valdesk-central/internal/invoice/number"
	obsmetrics "github.com/valnet/valdesk-central/internal/observability/metrics"
	pkgdb "github.com/valnet/valdesk-central/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkInvoice is the slice of a recurring invoice the generator needs to
// roll the next cycle.
type WorkInvoice struct {
	ID                  snowflake.ID
	ServiceAssignmentID snowflake.ID
	CitizenID           snowflake.ID
	Amount              decimal.Decimal
	Description         string
	DueDate             time.Time
}

// runGenerateInvoices rolls every PENDING recurring invoice into its next
// cycle: one fresh PENDING invoice per source row, due now, numbered with
// the scheduled-run variant. The (assignment, cycle_key) unique index
// makes reruns within the same day land as duplicate-key skips.
func (s *Scheduler) runGenerateInvoices(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "generate_invoices", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	schedMetrics := obsmetrics.Scheduler()
	now := s.clock.Now()
	cycleKey := invoicedomain.CycleKeyFor(now)

	var (
		errs   []error
		lastID snowflake.ID
	)
	for {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var batch []WorkInvoice
		claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.WithContext(claimCtx).Transaction(func(tx *gorm.DB) error {
			fetched, err := s.fetchPendingInvoicesForWork(claimCtx, tx, lastID, cycleKey, s.cfg.BatchSize)
			if err != nil {
				return err
			}
			batch = fetched
			return nil
		})
		cancel()
		if err != nil {
			errs = append(errs, err)
			break
		}

		generated := 0
		for _, src := range batch {
			inserted, err := s.rollInvoiceForward(ctx, src, now, cycleKey)
			if err != nil {
				s.logSchedulerError(ctx, run, "scheduler.invoice.generate_failed", "generate_invoices", err,
					zap.String("source_invoice_id", src.ID.String()),
				)
				errs = append(errs, err)
				continue
			}
			if inserted {
				generated++
			} else {
				schedMetrics.IncBatchDeferred("generate_invoices", obsmetrics.SchedulerBatchDeferredReasonDuplicateCycle)
			}
			run.AddProcessed(1)
		}
		if generated > 0 {
			schedMetrics.AddInvoicesGenerated(generated)
		}
		schedMetrics.AddBatchProcessed("generate_invoices", "recurring_invoices", len(batch))
		if len(batch) < s.cfg.BatchSize {
			break
		}
		lastID = batch[len(batch)-1].ID
	}
	return errors.Join(errs...)
}

// fetchPendingInvoicesForWork claims a batch of PENDING invoices past the
// id cursor. Rows already carrying the current cycle key are this run's
// own output and are not rolled again.
func (s *Scheduler) fetchPendingInvoicesForWork(ctx context.Context, tx *gorm.DB, afterID snowflake.ID, cycleKey string, limit int) ([]WorkInvoice, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	var invoices []WorkInvoice
	err := tx.WithContext(ctx).Raw(
		`SELECT id, service_assignment_id, citizen_id, amount, description, due_date
		 FROM recurring_invoices
		 WHERE status = ? AND id > ? AND cycle_key <> ?
		 ORDER BY id
		 LIMIT ?`+skipLockedClause(tx),
		invoicedomain.InvoiceStatusPending,
		afterID,
		cycleKey,
		limit,
	).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// rollInvoiceForward writes the next cycle's invoice and stamps the
// rollover dates on the source row, in one transaction per source row so
// a duplicate-key skip never poisons the rest of the batch. Returns
// false when the cycle already exists for the assignment.
func (s *Scheduler) rollInvoiceForward(ctx context.Context, src WorkInvoice, now time.Time, cycleKey string) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.insertSuccessorInvoice(ctx, tx, src, now, cycleKey)
		return err
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *Scheduler) insertSuccessorInvoice(ctx context.Context, tx *gorm.DB, src WorkInvoice, now time.Time, cycleKey string) (bool, error) {
	successor := invoicedomain.RecurringInvoice{
		ID:                  s.genID.Generate(),
		ServiceAssignmentID: src.ServiceAssignmentID,
		CitizenID:           src.CitizenID,
		InvoiceNumber:       number.ForScheduledRun(now),
		Amount:              src.Amount,
		Description:         src.Description,
		StartDate:           now,
		DueDate:             now,
		Status:              invoicedomain.InvoiceStatusPending,
		CycleKey:            cycleKey,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO recurring_invoices (id, service_assignment_id, citizen_id, invoice_number, amount, description, start_date, due_date, status, is_overdue, days_overdue, cycle_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		successor.ID,
		successor.ServiceAssignmentID,
		successor.CitizenID,
		successor.InvoiceNumber,
		successor.Amount,
		successor.Description,
		successor.StartDate,
		successor.DueDate,
		successor.Status,
		false,
		0,
		successor.CycleKey,
		successor.CreatedAt,
		successor.UpdatedAt,
	).Error
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}

	nextCycle := now.AddDate(0, 1, 0)
	if err := tx.WithContext(ctx).Exec(
		`UPDATE recurring_invoices
		 SET last_invoice_date = ?, next_invoice_date = ?, updated_at = ?
		 WHERE id = ?`,
		now,
		nextCycle,
		now,
		src.ID,
	).Error; err != nil {
		return false, err
	}
	return true, nil
}

// runOverdueSweep recomputes is_overdue and days_overdue on PENDING
// invoices whose due date has passed.
func (s *Scheduler) runOverdueSweep(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "overdue_sweep", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	now := s.clock.Now()

	var (
		errs   []error
		lastID snowflake.ID
	)
	for {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var batch []struct {
			ID      snowflake.ID
			DueDate time.Time
		}
		err := s.db.WithContext(ctx).Raw(
			`SELECT id, due_date
			 FROM recurring_invoices
			 WHERE status = ? AND due_date < ? AND id > ?
			 ORDER BY id
			 LIMIT ?`,
			invoicedomain.InvoiceStatusPending,
			now,
			lastID,
			s.cfg.BatchSize,
		).Scan(&batch).Error
		if err != nil {
			errs = append(errs, err)
			break
		}

		for _, inv := range batch {
			if inv.DueDate.IsZero() {
				s.logger(ctx).Warn("scheduler.invoice.zero_due_date",
					zap.String("job", "overdue_sweep"),
					zap.String("invoice_id", inv.ID.String()),
				)
				continue
			}
			daysOverdue := int(now.Sub(inv.DueDate).Hours() / 24)
			if daysOverdue < 0 {
				daysOverdue = 0
			}
			if err := s.db.WithContext(ctx).Exec(
				`UPDATE recurring_invoices
				 SET is_overdue = ?, days_overdue = ?, updated_at = ?
				 WHERE id = ? AND status = ?`,
				true,
				daysOverdue,
				now,
				inv.ID,
				invoicedomain.InvoiceStatusPending,
			).Error; err != nil {
				s.logSchedulerError(ctx, run, "scheduler.invoice.overdue_update_failed", "overdue_sweep", err,
					zap.String("invoice_id", inv.ID.String()),
				)
				errs = append(errs, err)
				continue
			}
			run.AddProcessed(1)
		}
		obsmetrics.Scheduler().AddBatchProcessed("overdue_sweep", "recurring_invoices", len(batch))

		if len(batch) < s.cfg.BatchSize {
			break
		}
		lastID = batch[len(batch)-1].ID
	}
	return errors.Join(errs...)
}

// runDebtorFlags realigns citizens.is_debtor with the presence of
// outstanding PENDING invoices.
func (s *Scheduler) runDebtorFlags(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "debtor_flags", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	now := s.clock.Now()
	res := s.db.WithContext(ctx).Exec(
		`UPDATE citizens
		 SET is_debtor = EXISTS (
		         SELECT 1 FROM recurring_invoices
		         WHERE recurring_invoices.citizen_id = citizens.id
		           AND recurring_invoices.status = ?
		     ),
		     updated_at = ?
		 WHERE is_debtor <> EXISTS (
		         SELECT 1 FROM recurring_invoices
		         WHERE recurring_invoices.citizen_id = citizens.id
		           AND recurring_invoices.status = ?
		     )`,
		invoicedomain.InvoiceStatusPending,
		now,
		invoicedomain.InvoiceStatusPending,
	)
	if res.Error != nil {
		s.logSchedulerError(ctx, run, "scheduler.debtor_flags.failed", "debtor_flags", res.Error)
		return res.Error
	}
	run.AddProcessed(int(res.RowsAffected))
	obsmetrics.Scheduler().AddBatchProcessed("debtor_flags", "citizens", int(res.RowsAffected))
	obsmetrics.Scheduler().IncDebtRecalculation()
	return nil
}

func skipLockedClause(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE SKIP LOCKED"
}
