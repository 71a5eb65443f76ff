package services

import (
	"errors"
	"time"

	"glowdesk-backend/models"
	"glowdesk-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceBuilder derives invoices from completed appointments and from
// package purchases. Creation is idempotent per source: the unique indexes
// on invoices.appointment_id / invoices.customer_package_id reject a second
// invoice for the same origin.
type InvoiceBuilder struct {
	db *gorm.DB
}

func NewInvoiceBuilder(db *gorm.DB) *InvoiceBuilder {
	return &InvoiceBuilder{db: db}
}

// FromAppointment builds the invoice for a completed appointment. When
// discountOverride is nil the customer's profile discount applies.
func (b *InvoiceBuilder) FromAppointment(branchID, appointmentID, createdBy uuid.UUID, discountOverride *decimal.Decimal) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := b.db.Transaction(func(tx *gorm.DB) error {
		var appointment models.Appointment
		if err := tx.Where("branch_id = ? AND id = ?", branchID, appointmentID).
			First(&appointment).Error; err != nil {
			return err
		}
		if appointment.Status != models.AppointmentStatusCompleted {
			return ErrAppointmentNotCompleted
		}

		var existing models.Invoice
		err := tx.Where("appointment_id = ?", appointmentID).First(&existing).Error
		if err == nil {
			return ErrInvoiceAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var service models.Service
		if err := tx.Where("branch_id = ? AND id = ?", branchID, appointment.ServiceID).
			First(&service).Error; err != nil {
			return err
		}

		rate, err := b.effectiveDiscount(tx, appointment.CustomerID, discountOverride)
		if err != nil {
			return err
		}

		total := models.DiscountedTotal(service.Price, rate)
		invoice = &models.Invoice{
			BranchID:        branchID,
			CustomerID:      appointment.CustomerID,
			CreatedByUserID: createdBy,
			InvoiceNumber:   newInvoiceNumber(),
			InvoiceDate:     time.Now(),
			SourceType:      models.InvoiceSourceAppointment,
			AppointmentID:   &appointment.ID,
			ServiceID:       &appointment.ServiceID,
			StaffID:         &appointment.StaffID,
			BasePrice:       service.Price,
			DiscountRate:    rate,
			TotalAmount:     total,
			AmountPaid:      decimal.Zero,
			Debt:            total,
			Status:          models.StatusFor(total, total),
		}
		if err := tx.Create(invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInvoiceAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// FromPackageSale sells a catalog package to a customer: creates the
// CustomerPackage with its session ledger initialized from the package
// composition, and the invoice for the purchase. A fully discounted sale
// produces an invoice that is born settled.
func (b *InvoiceBuilder) FromPackageSale(branchID, customerID, packageID, createdBy uuid.UUID, discountOverride *decimal.Decimal) (*models.Invoice, *models.CustomerPackage, error) {
	var (
		invoice *models.Invoice
		cp      *models.CustomerPackage
	)
	err := b.db.Transaction(func(tx *gorm.DB) error {
		var pkg models.Package
		if err := tx.Preload("Services").
			Where("branch_id = ? AND id = ? AND is_active = ?", branchID, packageID, true).
			First(&pkg).Error; err != nil {
			return err
		}

		var customer models.Customer
		if err := tx.Where("branch_id = ? AND id = ?", branchID, customerID).
			First(&customer).Error; err != nil {
			return err
		}

		rate, err := b.effectiveDiscount(tx, customerID, discountOverride)
		if err != nil {
			return err
		}

		now := time.Now()
		cp = &models.CustomerPackage{
			BranchID:     branchID,
			CustomerID:   customerID,
			PackageID:    pkg.ID,
			PurchaseDate: now,
			ExpiryDate:   now.AddDate(0, 0, pkg.ValidityDays),
		}
		if pkg.Type == models.PackageTypeTime {
			cp.TotalMinutes = pkg.TotalMinutes
			cp.RemainingMinutes = pkg.TotalMinutes
		}
		for _, ps := range pkg.Services {
			cp.Sessions = append(cp.Sessions, models.PackageSessionBalance{
				ServiceID:        ps.ServiceID,
				OriginalQuantity: ps.Quantity,
				Remaining:        ps.Quantity,
			})
		}
		if err := tx.Create(cp).Error; err != nil {
			return err
		}

		total := models.DiscountedTotal(pkg.Price, rate)
		invoice = &models.Invoice{
			BranchID:          branchID,
			CustomerID:        customerID,
			CreatedByUserID:   createdBy,
			InvoiceNumber:     newInvoiceNumber(),
			InvoiceDate:       now,
			SourceType:        models.InvoiceSourcePackageSale,
			CustomerPackageID: &cp.ID,
			StaffID:           &createdBy,
			BasePrice:         pkg.Price,
			DiscountRate:      rate,
			TotalAmount:       total,
			AmountPaid:        decimal.Zero,
			Debt:              total,
			Status:            models.StatusFor(total, total),
		}
		if err := tx.Create(invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInvoiceAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return invoice, cp, nil
}

func (b *InvoiceBuilder) effectiveDiscount(tx *gorm.DB, customerID uuid.UUID, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return models.ClampDiscountRate(*override), nil
	}
	var customer models.Customer
	if err := tx.Select("discount_rate").First(&customer, "id = ?", customerID).Error; err != nil {
		return decimal.Zero, err
	}
	return models.ClampDiscountRate(customer.DiscountRate), nil
}

func newInvoiceNumber() string {
	return "INV-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6)
}
