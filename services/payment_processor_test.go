package services

import (
	"testing"

	"glowdesk-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) invoiceFor(t *testing.T, appointment models.Appointment) *models.Invoice {
	t.Helper()
	discount := decimal.NewFromInt(10)
	invoice, err := NewInvoiceBuilder(f.db).FromAppointment(f.branch.ID, appointment.ID, f.staff.ID, &discount)
	require.NoError(t, err)
	return invoice
}

func TestPaymentLifecycleUnpaidToPartialToPaid(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil)) // total 900

	updated, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(400), models.PaymentMethodBankTransfer, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, updated.Status)
	assert.True(t, updated.Debt.Equal(decimal.NewFromInt(500)))

	updated, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(500), models.PaymentMethodBankTransfer, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.True(t, updated.Debt.IsZero())
	assert.True(t, updated.AmountPaid.Add(updated.Debt).Equal(updated.TotalAmount))

	// Any further amount is an overpayment.
	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(1), models.PaymentMethodBankTransfer, f.staff.ID)
	assert.ErrorIs(t, err, ErrOverpaymentRejected)
}

func TestPaymentRejectsInvalidAmounts(t *testing.T) {
	f := newFixture(t)
	processor := NewPaymentProcessor(f.db)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	_, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.Zero, models.PaymentMethodCash, f.staff.ID)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(-5), models.PaymentMethodCash, f.staff.ID)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(901), models.PaymentMethodCash, f.staff.ID)
	assert.ErrorIs(t, err, ErrOverpaymentRejected)

	// No writes leaked from the rejections.
	var fresh models.Invoice
	require.NoError(t, f.db.First(&fresh, "id = ?", invoice.ID).Error)
	assert.Equal(t, models.InvoiceStatusUnpaid, fresh.Status)
	assert.True(t, fresh.AmountPaid.IsZero())
}

func TestCashPaymentRequiresOpenDay(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)
	reconciler := NewCashDayReconciler(f.db)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	_, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodCash, f.staff.ID)
	assert.ErrorIs(t, err, ErrCashDayNotOpen)

	_, err = reconciler.OpenDay(f.branch.ID, decimal.NewFromInt(100), f.staff.ID)
	require.NoError(t, err)

	updated, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodCash, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)

	var entries []models.CashRegisterLog
	require.NoError(t, f.db.Where("branch_id = ? AND type = ?", f.branch.ID, models.CashEntryInvoicePayment).
		Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(900)))
}

func TestPackageCreditSettlementConsumesSession(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)

	_, cp := f.sessionPackage(t, 5)
	appointment := f.completedAppointment(t, &cp.ID)
	invoice := f.invoiceFor(t, appointment)

	updated, err := processor.ApplyPayment(f.branch.ID, invoice.ID, invoice.Debt, models.PaymentMethodCustomerCredit, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.Equal(t, 4, f.remaining(t, cp.ID))

	// Package credit never touches the drawer.
	var cashEntries int64
	require.NoError(t, f.db.Model(&models.CashRegisterLog{}).
		Where("branch_id = ?", f.branch.ID).Count(&cashEntries).Error)
	assert.EqualValues(t, 0, cashEntries)

	// The settlement funded a commission in the same transaction.
	var commissions []models.StaffCommission
	require.NoError(t, f.db.Where("invoice_id = ?", invoice.ID).Find(&commissions).Error)
	require.Len(t, commissions, 1)
	assert.False(t, commissions[0].IsReversed)
	assert.True(t, commissions[0].Amount.Equal(decimal.NewFromInt(90)), "commission = %s", commissions[0].Amount)
}

func TestVoidPaymentRollsBackSettlement(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)

	_, cp := f.sessionPackage(t, 5)
	appointment := f.completedAppointment(t, &cp.ID)
	invoice := f.invoiceFor(t, appointment)

	updated, err := processor.ApplyPayment(f.branch.ID, invoice.ID, invoice.Debt, models.PaymentMethodCustomerCredit, f.staff.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, updated.Status)
	require.Equal(t, 4, f.remaining(t, cp.ID))

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "invoice_id = ?", invoice.ID).Error)

	reverted, err := processor.VoidPayment(f.branch.ID, payment.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusUnpaid, reverted.Status)
	assert.True(t, reverted.Debt.Equal(reverted.TotalAmount))

	// The consumed session came back, the payment row survived, the
	// commission flipped to reversed.
	assert.Equal(t, 5, f.remaining(t, cp.ID))

	var kept models.Payment
	require.NoError(t, f.db.First(&kept, "id = ?", payment.ID).Error)
	assert.NotNil(t, kept.VoidedAt)

	var commission models.StaffCommission
	require.NoError(t, f.db.First(&commission, "invoice_id = ?", invoice.ID).Error)
	assert.True(t, commission.IsReversed)

	// Voiding twice is rejected and refunds nothing further.
	_, err = processor.VoidPayment(f.branch.ID, payment.ID, f.staff.ID)
	assert.ErrorIs(t, err, ErrPaymentAlreadyVoided)
	assert.Equal(t, 5, f.remaining(t, cp.ID))
}

func TestVoidCashPaymentPostsOffsettingEntry(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)
	reconciler := NewCashDayReconciler(f.db)

	_, err := reconciler.OpenDay(f.branch.ID, decimal.NewFromInt(100), f.staff.ID)
	require.NoError(t, err)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))
	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodCash, f.staff.ID)
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "invoice_id = ?", invoice.ID).Error)

	_, err = processor.VoidPayment(f.branch.ID, payment.ID, f.staff.ID)
	require.NoError(t, err)

	// Original entry untouched, correction appended; the day nets to zero.
	var entries []models.CashRegisterLog
	require.NoError(t, f.db.Where("branch_id = ? AND type = ?", f.branch.ID, models.CashEntryInvoicePayment).
		Order("created_at").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Add(entries[1].Amount).IsZero())
}

func TestRepayAfterVoidReArmsCommission(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	_, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodBankTransfer, f.staff.ID)
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "invoice_id = ?", invoice.ID).Error)
	_, err = processor.VoidPayment(f.branch.ID, payment.ID, f.staff.ID)
	require.NoError(t, err)

	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodBankTransfer, f.staff.ID)
	require.NoError(t, err)

	// Still a single commission line, live again.
	var commissions []models.StaffCommission
	require.NoError(t, f.db.Where("invoice_id = ?", invoice.ID).Find(&commissions).Error)
	require.Len(t, commissions, 1)
	assert.False(t, commissions[0].IsReversed)
}

func TestTimePackageCreditDebitsMinutes(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)
	processor := NewPaymentProcessor(f.db)
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

	appointment := f.completedAppointment(t, &cp.ID) // 60 minutes
	invoice := f.invoiceFor(t, appointment)

	_, err = processor.ApplyPayment(f.branch.ID, invoice.ID, invoice.Debt, models.PaymentMethodCustomerCredit, f.staff.ID)
	require.NoError(t, err)

	var fresh models.CustomerPackage
	require.NoError(t, f.db.First(&fresh, "id = ?", cp.ID).Error)
	assert.Equal(t, 540, fresh.RemainingMinutes)
}
