package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AssignmentStatus represents service-assignment lifecycle states.
// Invoice generation is driven by PENDING invoices, not by this status:
// suspending an assignment does not stop the rollover of cycles already
// invoiced.
type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "ACTIVE"
	AssignmentStatusSuspended AssignmentStatus = "SUSPENDED"
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED"
)

// ServiceAssignment links a citizen to a service with a recurring
// payment plan.
type ServiceAssignment struct {
	ID                   snowflake.ID     `gorm:"primaryKey" json:"id"`
	CitizenID            snowflake.ID     `gorm:"not null;index" json:"citizen_id"`
	ServiceName          string           `gorm:"not null" json:"service_name"`
	MonthlyPaymentAmount decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"monthly_payment_amount"`
	PaymentDay           int              `gorm:"not null" json:"payment_day"`
	PaymentNumbers       int              `gorm:"not null;default:0" json:"payment_numbers"`
	StartDate            time.Time        `gorm:"not null" json:"start_date"`
	Status               AssignmentStatus `gorm:"type:text;not null;default:'ACTIVE';index" json:"status"`
	CreatedAt            time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ServiceAssignment) TableName() string {
	return "service_assignments"
}
