package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/valnet/valdesk-central/internal/serviceassignment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, assignment *domain.ServiceAssignment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_assignments (id, citizen_id, service_name, monthly_payment_amount, payment_day, payment_numbers, start_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assignment.ID,
		assignment.CitizenID,
		assignment.ServiceName,
		assignment.MonthlyPaymentAmount,
		assignment.PaymentDay,
		assignment.PaymentNumbers,
		assignment.StartDate,
		assignment.Status,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceAssignment, error) {
	var assignment domain.ServiceAssignment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM service_assignments WHERE id = ?`,
		id,
	).Scan(&assignment).Error
	if err != nil {
		return nil, err
	}
	if assignment.ID == 0 {
		return nil, nil
	}
	return &assignment, nil
}

func (r *repo) ListByCitizen(ctx context.Context, db *gorm.DB, citizenID snowflake.ID) ([]*domain.ServiceAssignment, error) {
	var assignments []*domain.ServiceAssignment
	err := db.WithContext(ctx).
		Model(&domain.ServiceAssignment{}).
		Where("citizen_id = ?", citizenID).
		Order("created_at desc, id desc").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.AssignmentStatus) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE service_assignments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
