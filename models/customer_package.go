package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CustomerPackageStatusActive    = "ACTIVE"
	CustomerPackageStatusExpired   = "EXPIRED"
	CustomerPackageStatusExhausted = "EXHAUSTED"
)

// CustomerPackage is one customer's purchased instance of a Package,
// carrying its own session ledger.
type CustomerPackage struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	PackageID  uuid.UUID `gorm:"type:uuid;index;not null"`

	PurchaseDate time.Time `gorm:"not null"`
	ExpiryDate   time.Time `gorm:"not null"`

	// TIME packages track a single minutes grant instead of per-service balances.
	TotalMinutes     int `gorm:"default:0"`
	RemainingMinutes int `gorm:"default:0"`

	Sessions []PackageSessionBalance `gorm:"foreignKey:CustomerPackageID"`

	Package  Package  `gorm:"foreignKey:PackageID"`
	Customer Customer `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

// PackageSessionBalance is the per-service ledger row of a CustomerPackage.
// Remaining never drops below zero and never exceeds OriginalQuantity.
type PackageSessionBalance struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerPackageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cp_service,priority:1"`
	ServiceID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cp_service,priority:2"`
	OriginalQuantity  int       `gorm:"not null"`
	Remaining         int       `gorm:"not null"`
}

// SessionConsumption records one ledger debit keyed by the appointment that
// caused it. The unique appointment index is the idempotency token: retrying
// a settlement never double-decrements, and voiding refunds at most once.
type SessionConsumption struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerPackageID uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ServiceID         uuid.UUID `gorm:"type:uuid;not null"`
	Count             int       `gorm:"not null"`
	ConsumedAt        time.Time `gorm:"not null"`
	RefundedAt        *time.Time
}

// IsExpired reports whether the package can no longer be consumed from.
func (cp *CustomerPackage) IsExpired(now time.Time) bool {
	return now.After(cp.ExpiryDate)
}

// IsExhausted reports whether every grant has been fully consumed.
func (cp *CustomerPackage) IsExhausted() bool {
	for _, s := range cp.Sessions {
		if s.Remaining > 0 {
			return false
		}
	}
	return cp.RemainingMinutes <= 0
}

// Status derives the display status from expiry and remaining balances.
func (cp *CustomerPackage) Status(now time.Time) string {
	if cp.IsExhausted() {
		return CustomerPackageStatusExhausted
	}
	if cp.IsExpired(now) {
		return CustomerPackageStatusExpired
	}
	return CustomerPackageStatusActive
}

func (cp *CustomerPackage) BeforeCreate(tx *gorm.DB) (err error) {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return
}

func (b *PackageSessionBalance) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

func (s *SessionConsumption) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
