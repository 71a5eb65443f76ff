package services

import (
	"errors"
	"time"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashDayReconciler drives the CLOSED -> OPEN -> CLOSED lifecycle of a
// branch's cash drawer. The partial unique index on (branch_id) WHERE
// status = 'OPEN' is what makes two racing openers resolve to one winner.
type CashDayReconciler struct {
	db *gorm.DB
}

func NewCashDayReconciler(db *gorm.DB) *CashDayReconciler {
	return &CashDayReconciler{db: db}
}

// OpenDay opens the branch drawer with an opening balance and writes the
// OPENING marker entry.
func (r *CashDayReconciler) OpenDay(branchID uuid.UUID, openingBalance decimal.Decimal, userID uuid.UUID) (*models.CashDay, error) {
	if openingBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	day := models.CashDay{
		BranchID:       branchID,
		Status:         models.CashDayStatusOpen,
		OpeningBalance: openingBalance,
		OpenedByUserID: userID,
		OpenedAt:       time.Now(),
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&day).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDayAlreadyOpen
			}
			return err
		}
		entry := models.CashRegisterLog{
			BranchID:        branchID,
			CashDayID:       day.ID,
			Type:            models.CashEntryOpening,
			Amount:          openingBalance,
			Description:     "Opening balance",
			CreatedByUserID: userID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// PostMovement appends a signed manual movement to the open day.
func (r *CashDayReconciler) PostMovement(branchID uuid.UUID, entryType string, amount decimal.Decimal, description string, userID uuid.UUID) (*models.CashRegisterLog, error) {
	switch entryType {
	case models.CashEntryIncome, models.CashEntryOutcome,
		models.CashEntryManualIn, models.CashEntryManualOut:
	default:
		return nil, ErrInvalidMovementType
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var entry *models.CashRegisterLog
	err := r.db.Transaction(func(tx *gorm.DB) error {
		day, err := r.openDayTx(tx, branchID)
		if err != nil {
			return err
		}
		entry = &models.CashRegisterLog{
			BranchID:        branchID,
			CashDayID:       day.ID,
			Type:            entryType,
			Amount:          models.SignedAmount(entryType, amount),
			Description:     description,
			CreatedByUserID: userID,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CloseDay reconciles and closes the open day. The expected balance is the
// opening balance plus all signed movements; a non-zero difference against
// the counted drawer is recorded, never rejected.
func (r *CashDayReconciler) CloseDay(branchID uuid.UUID, actualBalance decimal.Decimal, userID uuid.UUID) (*models.CashDay, error) {
	var closed *models.CashDay
	err := r.db.Transaction(func(tx *gorm.DB) error {
		day, err := r.openDayTx(tx, branchID)
		if err != nil {
			return err
		}

		var entries []models.CashRegisterLog
		if err := tx.Where("cash_day_id = ?", day.ID).Find(&entries).Error; err != nil {
			return err
		}
		expected := models.ExpectedBalanceFrom(day.OpeningBalance, entries)
		difference := actualBalance.Sub(expected)

		now := time.Now()
		res := tx.Model(&models.CashDay{}).
			Where("id = ? AND status = ?", day.ID, models.CashDayStatusOpen).
			Updates(map[string]interface{}{
				"status":            models.CashDayStatusClosed,
				"expected_balance":  expected,
				"actual_balance":    actualBalance,
				"difference":        difference,
				"closed_by_user_id": userID,
				"closed_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDayNotOpen
		}

		entry := models.CashRegisterLog{
			BranchID:        branchID,
			CashDayID:       day.ID,
			Type:            models.CashEntryClosing,
			Amount:          actualBalance,
			Description:     "Closing balance",
			CreatedByUserID: userID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		day.Status = models.CashDayStatusClosed
		day.ExpectedBalance = &expected
		day.ActualBalance = &actualBalance
		day.Difference = &difference
		day.ClosedByUserID = &userID
		day.ClosedAt = &now
		closed = day
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// CurrentDay returns the branch's open day with its entries, or ErrDayNotOpen.
func (r *CashDayReconciler) CurrentDay(branchID uuid.UUID) (*models.CashDay, error) {
	var day models.CashDay
	err := r.db.Preload("Entries").
		Where("branch_id = ? AND status = ?", branchID, models.CashDayStatusOpen).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDayNotOpen
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *CashDayReconciler) openDayTx(tx *gorm.DB, branchID uuid.UUID) (*models.CashDay, error) {
	var day models.CashDay
	err := tx.Where("branch_id = ? AND status = ?", branchID, models.CashDayStatusOpen).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDayNotOpen
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}
