package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PackageTypeSession = "SESSION"
	PackageTypeTime    = "TIME"
)

// Package is a catalog template for a prepaid bundle of services. It becomes
// immutable once a CustomerPackage instance has been sold from it.
type Package struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name         string          `gorm:"not null"`
	Description  string
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ValidityDays int             `gorm:"not null"`
	Type         string          `gorm:"type:varchar(10);not null;default:'SESSION'"` // SESSION or TIME

	TotalSessions int // derived sum of service quantities for SESSION packages
	TotalMinutes  int // grant for TIME packages

	// Commission config applied when the package sale invoice settles.
	CommissionType   string          `gorm:"type:varchar(20);default:'PERCENTAGE'"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);default:0.0"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0.0"`

	IsActive bool `gorm:"default:true"`

	Services         []PackageService  `gorm:"foreignKey:PackageID"`
	CustomerPackages []CustomerPackage `gorm:"foreignKey:PackageID"`

	gorm.Model
}

// PackageService is one (service, quantity) entry of a package's composition.
type PackageService struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	PackageID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_package_service,priority:1"`
	ServiceID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_package_service,priority:2"`
	Quantity  int       `gorm:"not null"`

	Service Service `gorm:"foreignKey:ServiceID"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (ps *PackageService) BeforeCreate(tx *gorm.DB) (err error) {
	if ps.ID == uuid.Nil {
		ps.ID = uuid.New()
	}
	return
}
