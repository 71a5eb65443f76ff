package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	InvoiceStatusUnpaid        = "UNPAID"
	InvoiceStatusPartiallyPaid = "PARTIALLY_PAID"
	InvoiceStatusPaid          = "PAID"

	InvoiceSourceAppointment = "APPOINTMENT"
	InvoiceSourcePackageSale = "PACKAGE_SALE"

	PaymentMethodCash           = "CASH"
	PaymentMethodCreditCard     = "CREDIT_CARD"
	PaymentMethodBankTransfer   = "BANK_TRANSFER"
	PaymentMethodCustomerCredit = "CUSTOMER_CREDIT"
)

// Invoice is the billable record for exactly one appointment or one package
// sale. amountPaid + debt always equals totalAmount, and Status is a pure
// function of debt (see StatusFor).
type Invoice struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	InvoiceNumber string    `gorm:"uniqueIndex;not null"`
	InvoiceDate   time.Time `gorm:"not null"`

	SourceType string `gorm:"type:varchar(20);not null"` // APPOINTMENT or PACKAGE_SALE
	// Unique indexes make invoice creation idempotent per source.
	AppointmentID     *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CustomerPackageID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`

	ServiceID *uuid.UUID `gorm:"type:uuid;index"`
	StaffID   *uuid.UUID `gorm:"type:uuid;index"`

	BasePrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountRate decimal.Decimal `gorm:"type:decimal(5,2);default:0.0"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	AmountPaid   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Debt         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'UNPAID'"`

	Notes string

	// Version guards concurrent settlement: updates carry
	// WHERE version = ? and bump it, so stale writers lose.
	Version int `gorm:"not null;default:1"`

	Payments []Payment `gorm:"foreignKey:InvoiceID"`

	gorm.Model
}

// Payment is one settlement event against an invoice. Rows are never
// deleted; voiding sets VoidedAt and posts offsetting entries elsewhere.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index;not null"`
	BranchID  uuid.UUID `gorm:"type:uuid;index;not null"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method string          `gorm:"type:varchar(20);not null"`
	PaidAt time.Time       `gorm:"not null"`

	CashRegisterLogID *uuid.UUID `gorm:"type:uuid"`
	VoidedAt          *time.Time

	Invoice Invoice `gorm:"foreignKey:InvoiceID"`
}

// StatusFor derives the invoice status from debt against total. It is the
// single source of truth for the status discriminant.
func StatusFor(totalAmount, debt decimal.Decimal) string {
	switch {
	case debt.IsZero():
		return InvoiceStatusPaid
	case debt.Equal(totalAmount):
		return InvoiceStatusUnpaid
	default:
		return InvoiceStatusPartiallyPaid
	}
}

// ApplyAmount returns the paid/debt/status triple after settling amount
// against the invoice, without mutating it.
func (i *Invoice) ApplyAmount(amount decimal.Decimal) (paid, debt decimal.Decimal, status string) {
	paid = i.AmountPaid.Add(amount)
	debt = i.TotalAmount.Sub(paid)
	return paid, debt, StatusFor(i.TotalAmount, debt)
}

// DiscountedTotal applies a percentage discount to a base price, rounded to
// two decimal places.
func DiscountedTotal(basePrice, discountRate decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountRate.Div(decimal.NewFromInt(100)))
	return basePrice.Mul(factor).Round(2)
}

// ClampDiscountRate bounds a discount percentage to [0,100].
func ClampDiscountRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
