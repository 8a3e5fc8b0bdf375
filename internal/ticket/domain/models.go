package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Ticket is an inbound support request appended through the public
// endpoint.
type Ticket struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Subject       string            `gorm:"not null" json:"subject"`
	Description   string            `json:"description,omitempty"`
	ReporterName  string            `json:"reporter_name,omitempty"`
	ReporterEmail string            `json:"reporter_email,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}
