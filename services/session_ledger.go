package services

import (
	"errors"
	"time"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionLedger owns the per-service remaining-session counters of customer
// packages. All mutations run inside the caller's transaction (or a fresh
// one) and are guarded so two writers cannot spend the same session twice.
type SessionLedger struct {
	db *gorm.DB
}

func NewSessionLedger(db *gorm.DB) *SessionLedger {
	return &SessionLedger{db: db}
}

// Consume debits count sessions of serviceID from the customer package.
// appointmentID is the idempotency token: a consumption already recorded for
// the same appointment is returned as-is instead of double-decrementing.
func (l *SessionLedger) Consume(customerPackageID, appointmentID, serviceID uuid.UUID, count int) ([]models.PackageSessionBalance, error) {
	var balances []models.PackageSessionBalance
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		balances, txErr = l.ConsumeTx(tx, customerPackageID, appointmentID, serviceID, count)
		return txErr
	})
	return balances, err
}

// ConsumeTx is Consume running inside an existing transaction, for callers
// that settle payments and sessions atomically.
func (l *SessionLedger) ConsumeTx(tx *gorm.DB, customerPackageID, appointmentID, serviceID uuid.UUID, count int) ([]models.PackageSessionBalance, error) {
	if count <= 0 {
		return nil, ErrInvalidAmount
	}

	var cp models.CustomerPackage
	if err := tx.First(&cp, "id = ?", customerPackageID).Error; err != nil {
		return nil, err
	}
	if cp.IsExpired(time.Now()) {
		return nil, ErrPackageExpired
	}

	// Retry of an already-applied consumption: return current state untouched.
	var existing models.SessionConsumption
	err := tx.Where("appointment_id = ?", appointmentID).First(&existing).Error
	if err == nil && existing.RefundedAt == nil {
		return l.balances(tx, customerPackageID)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	rearm := err == nil // previously consumed and refunded, re-arm the same row

	var balance models.PackageSessionBalance
	if err := tx.Where("customer_package_id = ? AND service_id = ?", customerPackageID, serviceID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotInPackage
		}
		return nil, err
	}
	if balance.Remaining < count {
		return nil, ErrInsufficientSessions
	}

	// Conditional decrement: the remaining >= count guard re-checks under
	// the transaction so concurrent consumers serialize on the row.
	res := tx.Model(&models.PackageSessionBalance{}).
		Where("id = ? AND remaining >= ?", balance.ID, count).
		Update("remaining", gorm.Expr("remaining - ?", count))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientSessions
	}

	if rearm {
		res := tx.Model(&models.SessionConsumption{}).
			Where("id = ? AND refunded_at IS NOT NULL", existing.ID).
			Updates(map[string]interface{}{
				"refunded_at": nil,
				"consumed_at": time.Now(),
				"count":       count,
				"service_id":  serviceID,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrConcurrentUpdate
		}
	} else {
		consumption := models.SessionConsumption{
			CustomerPackageID: customerPackageID,
			AppointmentID:     appointmentID,
			ServiceID:         serviceID,
			Count:             count,
			ConsumedAt:        time.Now(),
		}
		if err := tx.Create(&consumption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race against a concurrent retry of the same
				// appointment; abort so the decrement above rolls back.
				return nil, ErrConcurrentUpdate
			}
			return nil, err
		}
	}

	return l.balances(tx, customerPackageID)
}

// Refund re-credits count sessions of serviceID, capped at the original
// grant so repeated refunds can never mint sessions.
func (l *SessionLedger) Refund(customerPackageID, serviceID uuid.UUID, count int) ([]models.PackageSessionBalance, error) {
	var balances []models.PackageSessionBalance
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		balances, txErr = l.RefundTx(tx, customerPackageID, serviceID, count)
		return txErr
	})
	return balances, err
}

// RefundTx is Refund inside an existing transaction.
func (l *SessionLedger) RefundTx(tx *gorm.DB, customerPackageID, serviceID uuid.UUID, count int) ([]models.PackageSessionBalance, error) {
	if count <= 0 {
		return nil, ErrInvalidAmount
	}

	var balance models.PackageSessionBalance
	if err := tx.Where("customer_package_id = ? AND service_id = ?", customerPackageID, serviceID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotInPackage
		}
		return nil, err
	}

	credited := balance.Remaining + count
	if credited > balance.OriginalQuantity {
		credited = balance.OriginalQuantity
	}
	if err := tx.Model(&models.PackageSessionBalance{}).
		Where("id = ?", balance.ID).
		Update("remaining", credited).Error; err != nil {
		return nil, err
	}

	return l.balances(tx, customerPackageID)
}

// RefundConsumptionTx reverses the consumption recorded for an appointment,
// exactly once. The guarded refunded_at update is the double-refund lock:
// a second void finds zero rows and credits nothing.
func (l *SessionLedger) RefundConsumptionTx(tx *gorm.DB, appointmentID uuid.UUID) error {
	var consumption models.SessionConsumption
	err := tx.Where("appointment_id = ? AND refunded_at IS NULL", appointmentID).
		First(&consumption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	res := tx.Model(&models.SessionConsumption{}).
		Where("id = ? AND refunded_at IS NULL", consumption.ID).
		Update("refunded_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var cp models.CustomerPackage
	if err := tx.First(&cp, "id = ?", consumption.CustomerPackageID).Error; err != nil {
		return err
	}
	if cp.TotalMinutes > 0 {
		credited := cp.RemainingMinutes + consumption.Count
		if credited > cp.TotalMinutes {
			credited = cp.TotalMinutes
		}
		return tx.Model(&models.CustomerPackage{}).
			Where("id = ?", cp.ID).
			Update("remaining_minutes", credited).Error
	}

	_, err = l.RefundTx(tx, consumption.CustomerPackageID, consumption.ServiceID, consumption.Count)
	return err
}

// ConsumeMinutesTx debits a TIME package by the appointment's duration.
// Like ConsumeTx, the consumption row keyed by appointment makes retries
// no-ops and voids refundable exactly once.
func (l *SessionLedger) ConsumeMinutesTx(tx *gorm.DB, customerPackageID, appointmentID, serviceID uuid.UUID, minutes int) error {
	if minutes <= 0 {
		return ErrInvalidAmount
	}
	var cp models.CustomerPackage
	if err := tx.First(&cp, "id = ?", customerPackageID).Error; err != nil {
		return err
	}
	if cp.IsExpired(time.Now()) {
		return ErrPackageExpired
	}

	var existing models.SessionConsumption
	err := tx.Where("appointment_id = ?", appointmentID).First(&existing).Error
	if err == nil && existing.RefundedAt == nil {
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	rearm := err == nil

	res := tx.Model(&models.CustomerPackage{}).
		Where("id = ? AND remaining_minutes >= ?", customerPackageID, minutes).
		Update("remaining_minutes", gorm.Expr("remaining_minutes - ?", minutes))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientSessions
	}

	if rearm {
		res := tx.Model(&models.SessionConsumption{}).
			Where("id = ? AND refunded_at IS NOT NULL", existing.ID).
			Updates(map[string]interface{}{
				"refunded_at": nil,
				"consumed_at": time.Now(),
				"count":       minutes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}
		return nil
	}
	consumption := models.SessionConsumption{
		CustomerPackageID: customerPackageID,
		AppointmentID:     appointmentID,
		ServiceID:         serviceID,
		Count:             minutes,
		ConsumedAt:        time.Now(),
	}
	if err := tx.Create(&consumption).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (l *SessionLedger) balances(tx *gorm.DB, customerPackageID uuid.UUID) ([]models.PackageSessionBalance, error) {
	var balances []models.PackageSessionBalance
	if err := tx.Where("customer_package_id = ?", customerPackageID).
		Order("service_id").
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
