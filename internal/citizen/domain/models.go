package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Citizen struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	FirstName       string            `gorm:"not null" json:"first_name"`
	LastName        string            `json:"last_name"`
	Cedula          string            `gorm:"not null;uniqueIndex:ux_citizens_cedula" json:"cedula"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Address         string            `json:"address,omitempty"`
	City            string            `gorm:"index" json:"city,omitempty"`
	Lat             *float64          `json:"lat,omitempty"`
	Lng             *float64          `json:"lng,omitempty"`
	ContactMetadata datatypes.JSONMap `gorm:"type:jsonb" json:"contact_metadata,omitempty"`
	IsDebtor        bool              `gorm:"not null;default:false;index" json:"is_debtor"`
	TotalDebt       decimal.Decimal   `gorm:"type:numeric(14,2);not null;default:0" json:"total_debt"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Citizen) TableName() string {
	return "citizens"
}
