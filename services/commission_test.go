package services

import (
	"testing"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRulePrecedence(t *testing.T) {
	serviceID := uuid.New()
	staffID := uuid.New()

	global := models.CommissionRule{ID: uuid.New(), Type: models.CommissionTypePercentage, Rate: decimal.NewFromInt(5), IsActive: true}
	staffScoped := models.CommissionRule{ID: uuid.New(), StaffID: &staffID, Type: models.CommissionTypePercentage, Rate: decimal.NewFromInt(8), IsActive: true}
	serviceScoped := models.CommissionRule{ID: uuid.New(), ServiceID: &serviceID, Type: models.CommissionTypePercentage, Rate: decimal.NewFromInt(12), IsActive: true}

	tests := []struct {
		name  string
		rules []models.CommissionRule
		want  uuid.UUID
	}{
		{"service beats staff and global", []models.CommissionRule{global, staffScoped, serviceScoped}, serviceScoped.ID},
		{"staff beats global", []models.CommissionRule{global, staffScoped}, staffScoped.ID},
		{"global fallback", []models.CommissionRule{global}, global.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ResolveRule(tt.rules, serviceID, staffID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule.ID)
		})
	}
}

func TestResolveRuleIgnoresForeignScopes(t *testing.T) {
	serviceID := uuid.New()
	staffID := uuid.New()
	otherService := uuid.New()
	otherStaff := uuid.New()

	rules := []models.CommissionRule{
		{ID: uuid.New(), ServiceID: &otherService, Rate: decimal.NewFromInt(50), IsActive: true},
		{ID: uuid.New(), StaffID: &otherStaff, Rate: decimal.NewFromInt(50), IsActive: true},
	}
	_, err := ResolveRule(rules, serviceID, staffID)
	assert.ErrorIs(t, err, ErrNoApplicableRule)
}

func TestResolveRuleSkipsInactive(t *testing.T) {
	serviceID := uuid.New()
	staffID := uuid.New()

	inactive := models.CommissionRule{ID: uuid.New(), ServiceID: &serviceID, Rate: decimal.NewFromInt(12)}
	global := models.CommissionRule{ID: uuid.New(), Rate: decimal.NewFromInt(5), IsActive: true}

	rule, err := ResolveRule([]models.CommissionRule{inactive, global}, serviceID, staffID)
	require.NoError(t, err)
	assert.Equal(t, global.ID, rule.ID)
}

func TestComputeForInvoicePicksMostSpecificRule(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 5)
	serviceRule := models.CommissionRule{
		BranchID:  f.branch.ID,
		ServiceID: &f.service.ID,
		Type:      models.CommissionTypePercentage,
		Rate:      decimal.NewFromInt(20),
		IsActive:  true,
	}
	require.NoError(t, f.db.Create(&serviceRule).Error)

	calculator := NewCommissionCalculator(f.db)
	invoice := f.invoiceFor(t, f.completedAppointment(t, nil)) // total 900

	commissions, err := calculator.ComputeForInvoice(f.db, invoice)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.True(t, commissions[0].Amount.Equal(decimal.NewFromInt(180)), "commission = %s", commissions[0].Amount)
	require.NotNil(t, commissions[0].RuleID)
	assert.Equal(t, serviceRule.ID, *commissions[0].RuleID)
}

func TestComputeForInvoiceFixedAmountRule(t *testing.T) {
	f := newFixture(t)
	rule := models.CommissionRule{
		BranchID: f.branch.ID,
		Type:     models.CommissionTypeFixed,
		Amount:   decimal.NewFromInt(75),
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&rule).Error)

	calculator := NewCommissionCalculator(f.db)
	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	commissions, err := calculator.ComputeForInvoice(f.db, invoice)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.True(t, commissions[0].Amount.Equal(decimal.NewFromInt(75)))
}

func TestComputeForInvoiceRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.globalRule(t, 10)

	calculator := NewCommissionCalculator(f.db)
	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	_, err := calculator.ComputeForInvoice(f.db, invoice)
	require.NoError(t, err)

	_, err = calculator.ComputeForInvoice(f.db, invoice)
	assert.ErrorIs(t, err, ErrCommissionAlreadyExists)

	var count int64
	require.NoError(t, f.db.Model(&models.StaffCommission{}).
		Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestComputeForInvoiceWithoutAnyRule(t *testing.T) {
	f := newFixture(t)
	calculator := NewCommissionCalculator(f.db)
	invoice := f.invoiceFor(t, f.completedAppointment(t, nil))

	commissions, err := calculator.ComputeForInvoice(f.db, invoice)
	require.NoError(t, err)
	assert.Empty(t, commissions)
}

func TestSettlementSucceedsWithoutCommissionRules(t *testing.T) {
	f := newFixture(t)
	processor := NewPaymentProcessor(f.db)

	invoice := f.invoiceFor(t, f.completedAppointment(t, nil)) // total 900

	// A branch that never configured commission rules can still collect
	// final payments; the invoice settles and no commission is posted.
	updated, err := processor.ApplyPayment(f.branch.ID, invoice.ID, decimal.NewFromInt(900), models.PaymentMethodBankTransfer, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)

	var count int64
	require.NoError(t, f.db.Model(&models.StaffCommission{}).
		Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestComputeForPackageSaleUsesPackageConfig(t *testing.T) {
	f := newFixture(t)
	builder := NewInvoiceBuilder(f.db)

	pkg := models.Package{
		BranchID:       f.branch.ID,
		Name:           "Bundle",
		Price:          decimal.NewFromInt(4000),
		ValidityDays:   30,
		Type:           models.PackageTypeSession,
		CommissionType: models.CommissionTypePercentage,
		CommissionRate: decimal.NewFromInt(3),
		Services: []models.PackageService{
			{ServiceID: f.service.ID, Quantity: 5},
		},
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&pkg).Error)

	invoice, _, err := builder.FromPackageSale(f.branch.ID, f.customer.ID, pkg.ID, f.staff.ID, nil)
	require.NoError(t, err)

	calculator := NewCommissionCalculator(f.db)
	commissions, err := calculator.ComputeForInvoice(f.db, invoice)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.True(t, commissions[0].Amount.Equal(decimal.NewFromInt(120)), "commission = %s", commissions[0].Amount)
}
