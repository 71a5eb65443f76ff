package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CashDayStatusOpen   = "OPEN"
	CashDayStatusClosed = "CLOSED"

	CashEntryOpening        = "OPENING"
	CashEntryClosing        = "CLOSING"
	CashEntryIncome         = "INCOME"
	CashEntryOutcome        = "OUTCOME"
	CashEntryManualIn       = "MANUAL_IN"
	CashEntryManualOut      = "MANUAL_OUT"
	CashEntryInvoicePayment = "INVOICE_PAYMENT"
)

// CashDay is the OPEN/CLOSED lifecycle window of a branch's cash drawer.
// The partial unique index keeps at most one OPEN day per branch; a racing
// second opener hits a duplicate-key error.
type CashDay struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index:idx_branch_open_day,unique,where:status = 'OPEN'"`

	Status string `gorm:"type:varchar(10);not null;default:'OPEN'"`

	OpeningBalance  decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ActualBalance   *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Difference      *decimal.Decimal `gorm:"type:decimal(10,2)"`

	OpenedByUserID uuid.UUID  `gorm:"type:uuid;not null"`
	ClosedByUserID *uuid.UUID `gorm:"type:uuid"`
	OpenedAt       time.Time  `gorm:"not null"`
	ClosedAt       *time.Time

	Entries []CashRegisterLog `gorm:"foreignKey:CashDayID"`
}

// CashRegisterLog is an append-only, branch-scoped drawer entry. Entries are
// never mutated after creation; corrections are new offsetting entries.
type CashRegisterLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID  uuid.UUID `gorm:"type:uuid;index;not null"`
	CashDayID uuid.UUID `gorm:"type:uuid;index;not null"`

	Type        string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // signed
	Description string

	// Links the entry back to the invoice payment that produced it.
	PaymentID *uuid.UUID `gorm:"type:uuid"`

	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
}

// SignedAmount normalizes a movement amount by entry type: income-like
// entries count positive, outcome-like entries negative.
func SignedAmount(entryType string, amount decimal.Decimal) decimal.Decimal {
	switch entryType {
	case CashEntryOutcome, CashEntryManualOut:
		return amount.Abs().Neg()
	default:
		return amount.Abs()
	}
}

// ExpectedBalanceFrom folds the signed movement entries over an opening
// balance. OPENING and CLOSING entries are bookkeeping markers, not drawer
// movements, and are skipped.
func ExpectedBalanceFrom(opening decimal.Decimal, entries []CashRegisterLog) decimal.Decimal {
	expected := opening
	for _, e := range entries {
		if e.Type == CashEntryOpening || e.Type == CashEntryClosing {
			continue
		}
		expected = expected.Add(e.Amount)
	}
	return expected
}

func (d *CashDay) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

func (l *CashRegisterLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
