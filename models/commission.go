package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CommissionTypePercentage = "PERCENTAGE"
	CommissionTypeFixed      = "FIXED_AMOUNT"
)

// CommissionRule configures staff earnings for settled invoice lines.
// Scope narrows by optional ServiceID and StaffID; resolution precedence is
// service-specific > staff-specific > global.
type CommissionRule struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID uuid.UUID `gorm:"type:uuid;index;not null"`

	ServiceID *uuid.UUID `gorm:"type:uuid;index"`
	StaffID   *uuid.UUID `gorm:"type:uuid;index"`

	Type   string          `gorm:"type:varchar(20);not null;default:'PERCENTAGE'"`
	Rate   decimal.Decimal `gorm:"type:decimal(5,2);default:0.0"`  // percent for PERCENTAGE
	Amount decimal.Decimal `gorm:"type:decimal(10,2);default:0.0"` // flat for FIXED_AMOUNT

	IsActive bool `gorm:"default:true"`

	gorm.Model
}

// StaffCommission is a derived earning from one invoice's settlement. Rows
// are never deleted; a voided funding payment flips IsReversed instead.
type StaffCommission struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID uuid.UUID `gorm:"type:uuid;index;not null"`

	InvoiceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_commission_line,priority:1"`
	StaffID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_commission_line,priority:2"`
	ServiceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_commission_line,priority:3"`
	RuleID    *uuid.UUID `gorm:"type:uuid"`

	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsReversed bool            `gorm:"default:false"`

	gorm.Model
}

// CommissionAmount computes the earning for a settled line amount, rounded
// half-up to two decimal places.
func (r *CommissionRule) CommissionAmount(lineAmount decimal.Decimal) decimal.Decimal {
	if r.Type == CommissionTypeFixed {
		return r.Amount.Round(2)
	}
	return lineAmount.Mul(r.Rate).Div(decimal.NewFromInt(100)).Round(2)
}

// Specificity orders rules for resolution: service-scoped beats staff-scoped
// beats global.
func (r *CommissionRule) Specificity() int {
	switch {
	case r.ServiceID != nil:
		return 2
	case r.StaffID != nil:
		return 1
	default:
		return 0
	}
}

func (r *CommissionRule) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (sc *StaffCommission) BeforeCreate(tx *gorm.DB) (err error) {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	return
}
