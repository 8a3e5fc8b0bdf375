package repository

import (
	"context"

	"github.com/valnet/valdesk-central/internal/ticket/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ticket *domain.Ticket) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tickets (id, subject, description, reporter_name, reporter_email, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID,
		ticket.Subject,
		ticket.Description,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.Metadata,
		ticket.CreatedAt,
	).Error
}
