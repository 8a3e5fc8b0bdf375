package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/pkg/db/option"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, citizen *domain.Citizen) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO citizens (id, first_name, last_name, cedula, email, phone, address, city, lat, lng, contact_metadata, is_debtor, total_debt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		citizen.ID,
		citizen.FirstName,
		citizen.LastName,
		citizen.Cedula,
		citizen.Email,
		citizen.Phone,
		citizen.Address,
		citizen.City,
		citizen.Lat,
		citizen.Lng,
		citizen.ContactMetadata,
		citizen.IsDebtor,
		citizen.TotalDebt,
		citizen.CreatedAt,
		citizen.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Citizen, error) {
	var citizen domain.Citizen
	err := db.WithContext(ctx).Raw(
		`SELECT id, first_name, last_name, cedula, email, phone, address, city, lat, lng, contact_metadata, is_debtor, total_debt, created_at, updated_at
		 FROM citizens WHERE id = ?`,
		id,
	).Scan(&citizen).Error
	if err != nil {
		return nil, err
	}
	if citizen.ID == 0 {
		return nil, nil
	}
	return &citizen, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCitizenFilter, page pagination.Pagination) ([]*domain.Citizen, error) {
	var citizens []*domain.Citizen
	stmt := db.WithContext(ctx).
		Model(&domain.Citizen{})
	if filter.Name != "" {
		stmt = stmt.Where("first_name LIKE ? OR last_name LIKE ?", filter.Name+"%", filter.Name+"%")
	}
	if filter.Cedula != "" {
		stmt = stmt.Where("cedula = ?", filter.Cedula)
	}
	if filter.City != "" {
		stmt = stmt.Where("city = ?", filter.City)
	}
	if filter.IsDebtor != nil {
		stmt = stmt.Where("is_debtor = ?", *filter.IsDebtor)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&citizens).Error
	if err != nil {
		return nil, err
	}
	return citizens, nil
}

func (r *repo) SumPendingInvoices(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) AS total
		 FROM recurring_invoices WHERE citizen_id = ? AND status = 'PENDING'`,
		id,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repo) UpdateDebt(ctx context.Context, db *gorm.DB, id snowflake.ID, totalDebt decimal.Decimal, isDebtor bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE citizens SET total_debt = ?, is_debtor = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		totalDebt,
		isDebtor,
		id,
	).Error
}
