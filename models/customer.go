package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_phone,priority:1"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name  string `gorm:"not null"`
	Phone string `gorm:"not null;uniqueIndex:idx_branch_phone,priority:2"`
	Email string
	Notes string

	// Default discount applied when building invoices, percent in [0,100].
	DiscountRate decimal.Decimal `gorm:"type:decimal(5,2);default:0.0"`

	TotalVisits int             `gorm:"default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(10,2);default:0.0"`
	LastVisit   *time.Time
	IsActive    bool `gorm:"default:true"`

	Invoices         []Invoice         `gorm:"foreignKey:CustomerID"`
	CustomerPackages []CustomerPackage `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
