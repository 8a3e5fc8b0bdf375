package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, assignment *ServiceAssignment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceAssignment, error)
	ListByCitizen(ctx context.Context, db *gorm.DB, citizenID snowflake.ID) ([]*ServiceAssignment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status AssignmentStatus) (bool, error)
}
