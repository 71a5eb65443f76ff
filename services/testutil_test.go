package services

import (
	"fmt"
	"testing"
	"time"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test and migrates the full
// schema. cache=shared keeps the database alive across pooled connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Package{},
		&models.PackageService{},
		&models.CustomerPackage{},
		&models.PackageSessionBalance{},
		&models.SessionConsumption{},
		&models.Appointment{},
		&models.Invoice{},
		&models.Payment{},
		&models.CommissionRule{},
		&models.StaffCommission{},
		&models.CashDay{},
		&models.CashRegisterLog{},
		&models.NotificationLog{},
	))
	return db
}

// fixture bundles the entities nearly every engine test needs.
type fixture struct {
	db       *gorm.DB
	branch   models.Branch
	staff    models.User
	customer models.Customer
	service  models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db}
	f.branch = models.Branch{Name: "Downtown", IsActive: true}
	require.NoError(t, db.Create(&f.branch).Error)

	f.staff = models.User{
		Email:    "staff@example.com",
		Password: "not-a-real-password",
		Name:     "Dana",
		Role:     "staff",
		BranchID: f.branch.ID,
	}
	require.NoError(t, db.Create(&f.staff).Error)

	f.customer = models.Customer{
		BranchID:        f.branch.ID,
		CreatedByUserID: f.staff.ID,
		Name:            "Alex",
		Phone:           "+15550001111",
		DiscountRate:    decimal.Zero,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&f.customer).Error)

	f.service = models.Service{
		BranchID: f.branch.ID,
		Name:     "Deep Tissue Massage",
		Price:    decimal.NewFromInt(1000),
		Duration: 60,
		IsActive: true,
	}
	require.NoError(t, db.Create(&f.service).Error)

	return f
}

// sessionPackage creates a SESSION catalog package granting quantity uses of
// the fixture service and sells it to the fixture customer.
func (f *fixture) sessionPackage(t *testing.T, quantity int) (models.Package, models.CustomerPackage) {
	t.Helper()

	pkg := models.Package{
		BranchID:      f.branch.ID,
		Name:          "Massage Bundle",
		Price:         decimal.NewFromInt(4000),
		ValidityDays:  30,
		Type:          models.PackageTypeSession,
		TotalSessions: quantity,
		Services: []models.PackageService{
			{ServiceID: f.service.ID, Quantity: quantity},
		},
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&pkg).Error)

	now := time.Now()
	cp := models.CustomerPackage{
		BranchID:     f.branch.ID,
		CustomerID:   f.customer.ID,
		PackageID:    pkg.ID,
		PurchaseDate: now,
		ExpiryDate:   now.AddDate(0, 0, pkg.ValidityDays),
		Sessions: []models.PackageSessionBalance{
			{ServiceID: f.service.ID, OriginalQuantity: quantity, Remaining: quantity},
		},
	}
	require.NoError(t, f.db.Create(&cp).Error)
	return pkg, cp
}

// completedAppointment books and completes an appointment for the fixture
// customer, optionally funded by a customer package.
func (f *fixture) completedAppointment(t *testing.T, customerPackageID *uuid.UUID) models.Appointment {
	t.Helper()

	start := time.Now().Add(-2 * time.Hour)
	appointment := models.Appointment{
		BranchID:          f.branch.ID,
		CustomerID:        f.customer.ID,
		ServiceID:         f.service.ID,
		StaffID:           f.staff.ID,
		StartTime:         start,
		EndTime:           start.Add(time.Hour),
		Status:            models.AppointmentStatusCompleted,
		CustomerPackageID: customerPackageID,
	}
	require.NoError(t, f.db.Create(&appointment).Error)
	return appointment
}

// globalRule installs a branch-wide percentage commission rule.
func (f *fixture) globalRule(t *testing.T, rate int64) models.CommissionRule {
	t.Helper()

	rule := models.CommissionRule{
		BranchID: f.branch.ID,
		Type:     models.CommissionTypePercentage,
		Rate:     decimal.NewFromInt(rate),
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&rule).Error)
	return rule
}

// remaining reads the current balance of the fixture service in a package.
func (f *fixture) remaining(t *testing.T, customerPackageID uuid.UUID) int {
	t.Helper()

	var balance models.PackageSessionBalance
	require.NoError(t, f.db.Where("customer_package_id = ? AND service_id = ?", customerPackageID, f.service.ID).
		First(&balance).Error)
	return balance.Remaining
}

// expirePackage forces a package past its expiry date.
func (f *fixture) expirePackage(t *testing.T, customerPackageID uuid.UUID) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.CustomerPackage{}).
		Where("id = ?", customerPackageID).
		Update("expiry_date", time.Now().Add(-24*time.Hour)).Error)
}
