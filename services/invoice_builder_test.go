package services

import (
	"testing"

	"glowdesk-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppointmentRequiresCompletion(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	require.NoError(t, f.db.Model(&appointment).Update("status", models.AppointmentStatusScheduled).Error)

	_, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, nil)
	assert.ErrorIs(t, err, ErrAppointmentNotCompleted)
}

func TestFromAppointmentAppliesDiscount(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	discount := decimal.NewFromInt(10)
	invoice, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, &discount)
	require.NoError(t, err)

	// 1000 at 10% off is stored as 900, fully owed
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(900)), "total = %s", invoice.TotalAmount)
	assert.True(t, invoice.AmountPaid.IsZero())
	assert.True(t, invoice.Debt.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)
	assert.Equal(t, models.InvoiceSourceAppointment, invoice.SourceType)
}

func TestFromAppointmentUsesCustomerProfileDiscount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Customer{}).
		Where("id = ?", f.customer.ID).
		Update("discount_rate", decimal.NewFromInt(25)).Error)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	invoice, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, nil)
	require.NoError(t, err)

	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(750)), "total = %s", invoice.TotalAmount)
}

func TestFromAppointmentClampsDiscountOverride(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	discount := decimal.NewFromInt(150)
	invoice, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, &discount)
	require.NoError(t, err)

	assert.True(t, invoice.TotalAmount.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
}

func TestFullDiscountInvoiceBornSettled(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	discount := decimal.NewFromInt(100)
	invoice, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, &discount)
	require.NoError(t, err)

	// Nothing owed, so the invoice settles at creation.
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.True(t, invoice.Debt.IsZero())

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, models.InvoiceStatusPaid, stored.Status)

	// Any positive amount overpays a settled invoice.
	processor := NewPaymentProcessor(f.db)
	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(1), models.PaymentMethodBankTransfer, f.staff.ID)
	assert.ErrorIs(t, err, ErrOverpaymentRejected)

	// Nothing was collected, so no commission is owed.
	var commissions int64
	require.NoError(t, f.db.Model(&models.StaffCommission{}).
		Where("invoice_id = ?", invoice.ID).Count(&commissions).Error)
	assert.Zero(t, commissions)
}

func TestFullDiscountPackageSaleBornSettled(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	pkg, _ := f.sessionPackage(t, 5)
	discount := decimal.NewFromInt(100)
	invoice, _, err := builder.FromPackageSale(f.branch.ID, f.customer.ID, pkg.ID, f.staff.ID, &discount)
	require.NoError(t, err)

	assert.True(t, invoice.TotalAmount.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
}

func TestFromAppointmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	appointment := f.completedAppointment(t, nil)
	_, err := builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, nil)
	require.NoError(t, err)

	_, err = builder.FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, nil)
	assert.ErrorIs(t, err, ErrInvoiceAlreadyExists)

	var count int64
	require.NoError(t, f.db.Model(&models.Invoice{}).
		Where("appointment_id = ?", appointment.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFromPackageSaleInitializesLedger(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	pkg := models.Package{
		BranchID:     f.branch.ID,
		Name:         "Starter Bundle",
		Price:        decimal.NewFromInt(4000),
		ValidityDays: 60,
		Type:         models.PackageTypeSession,
		Services: []models.PackageService{
			{ServiceID: f.service.ID, Quantity: 8},
		},
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&pkg).Error)

	invoice, cp, err := builder.FromPackageSale(f.branch.ID, f.customer.ID, pkg.ID, f.staff.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceSourcePackageSale, invoice.SourceType)
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)

	require.Len(t, cp.Sessions, 1)
	assert.Equal(t, 8, cp.Sessions[0].OriginalQuantity)
	assert.Equal(t, 8, cp.Sessions[0].Remaining)

	wantExpiry := cp.PurchaseDate.AddDate(0, 0, 60)
	assert.WithinDuration(t, wantExpiry, cp.ExpiryDate, 0)
}

func TestFromPackageSaleTimePackageGrantsMinutes(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	pkg := models.Package{
		BranchID:     f.branch.ID,
		Name:         "Flex Hours",
		Price:        decimal.NewFromInt(2500),
		ValidityDays: 90,
		Type:         models.PackageTypeTime,
		TotalMinutes: 600,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(&pkg).Error)

	_, cp, err := builder.FromPackageSale(f.branch.ID, f.customer.ID, pkg.ID, f.staff.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 600, cp.TotalMinutes)
	assert.Equal(t, 600, cp.RemainingMinutes)
	assert.Empty(t, cp.Sessions)
}
