package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Branch struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string    `gorm:"not null"`
	Address  string
	Phone    string
	IsActive bool `gorm:"default:true"`

	Users           []User           `gorm:"foreignKey:BranchID"`
	Customers       []Customer       `gorm:"foreignKey:BranchID"`
	Services        []Service        `gorm:"foreignKey:BranchID"`
	Packages        []Package        `gorm:"foreignKey:BranchID"`
	Invoices        []Invoice        `gorm:"foreignKey:BranchID"`
	CommissionRules []CommissionRule `gorm:"foreignKey:BranchID"`
	CashDays        []CashDay        `gorm:"foreignKey:BranchID"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
