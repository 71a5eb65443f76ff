package services

import (
	"errors"
	"time"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentProcessor applies settlements against invoices and reverses them.
// Every operation is one transaction: payment row, invoice totals, session
// consumption, cash entry and commission commit or roll back together.
type PaymentProcessor struct {
	db          *gorm.DB
	ledger      *SessionLedger
	commissions *CommissionCalculator
}

func NewPaymentProcessor(db *gorm.DB) *PaymentProcessor {
	return &PaymentProcessor{
		db:          db,
		ledger:      NewSessionLedger(db),
		commissions: NewCommissionCalculator(db),
	}
}

// ApplyPayment settles amount against the invoice. Debt is re-read inside
// the transaction and the invoice row carries a version guard, so two staff
// settling the same invoice concurrently cannot both succeed if the second
// would overpay.
func (p *PaymentProcessor) ApplyPayment(branchID, invoiceID uuid.UUID, amount decimal.Decimal, method string, userID uuid.UUID) (*models.Invoice, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var result *models.Invoice
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Where("branch_id = ? AND id = ?", branchID, invoiceID).
			First(&invoice).Error; err != nil {
			return err
		}
		if amount.GreaterThan(invoice.Debt) {
			return ErrOverpaymentRejected
		}

		paid, debt, status := invoice.ApplyAmount(amount)
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version).
			Updates(map[string]interface{}{
				"amount_paid": paid,
				"debt":        debt,
				"status":      status,
				"version":     invoice.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		// Package-funded settlement debits the session ledger.
		if method == models.PaymentMethodCustomerCredit && invoice.AppointmentID != nil {
			if err := p.consumeForAppointment(tx, *invoice.AppointmentID); err != nil {
				return err
			}
		}

		var cashLogID *uuid.UUID
		if method != models.PaymentMethodCustomerCredit {
			logID, err := p.postCashEntry(tx, branchID, userID, method, amount, "Invoice "+invoice.InvoiceNumber)
			if err != nil {
				return err
			}
			cashLogID = logID
		}

		payment := models.Payment{
			InvoiceID:         invoice.ID,
			BranchID:          branchID,
			Amount:            amount,
			Method:            method,
			PaidAt:            time.Now(),
			CashRegisterLogID: cashLogID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if cashLogID != nil {
			if err := tx.Model(&models.CashRegisterLog{}).
				Where("id = ?", *cashLogID).
				Update("payment_id", payment.ID).Error; err != nil {
				return err
			}
		}

		invoice.AmountPaid = paid
		invoice.Debt = debt
		invoice.Status = status
		invoice.Version++

		if status == models.InvoiceStatusPaid {
			if _, err := p.commissions.ComputeForInvoice(tx, &invoice); err != nil {
				return err
			}
			if err := p.bumpCustomerStats(tx, &invoice); err != nil {
				return err
			}
		}

		result = &invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VoidPayment reverses a settlement: the payment is flagged (never deleted),
// the invoice totals roll back, any session consumption of the invoice's
// appointment is refunded once, commissions flip to reversed, and an
// offsetting cash entry is posted.
func (p *PaymentProcessor) VoidPayment(branchID, paymentID, userID uuid.UUID) (*models.Invoice, error) {
	var result *models.Invoice
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("branch_id = ? AND id = ?", branchID, paymentID).
			First(&payment).Error; err != nil {
			return err
		}
		if payment.VoidedAt != nil {
			return ErrPaymentAlreadyVoided
		}

		now := time.Now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND voided_at IS NULL", payment.ID).
			Update("voided_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPaymentAlreadyVoided
		}

		var invoice models.Invoice
		if err := tx.First(&invoice, "id = ?", payment.InvoiceID).Error; err != nil {
			return err
		}
		wasPaid := invoice.Status == models.InvoiceStatusPaid

		paid := invoice.AmountPaid.Sub(payment.Amount)
		debt := invoice.TotalAmount.Sub(paid)
		status := models.StatusFor(invoice.TotalAmount, debt)
		update := tx.Model(&models.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version).
			Updates(map[string]interface{}{
				"amount_paid": paid,
				"debt":        debt,
				"status":      status,
				"version":     invoice.Version + 1,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		if payment.Method == models.PaymentMethodCustomerCredit && invoice.AppointmentID != nil {
			if err := p.ledger.RefundConsumptionTx(tx, *invoice.AppointmentID); err != nil {
				return err
			}
		}

		if wasPaid {
			if err := p.commissions.ReverseForInvoice(tx, invoice.ID); err != nil {
				return err
			}
		}

		// The original drawer entry stays untouched; the correction is a new
		// offsetting entry on the currently open day.
		if payment.CashRegisterLogID != nil {
			if _, err := p.postCashEntry(tx, branchID, userID, payment.Method,
				payment.Amount.Neg(), "Void of invoice "+invoice.InvoiceNumber); err != nil {
				return err
			}
		}

		invoice.AmountPaid = paid
		invoice.Debt = debt
		invoice.Status = status
		invoice.Version++
		result = &invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// consumeForAppointment debits the package linked to the appointment:
// one session of the booked service, or the booked minutes for TIME packages.
func (p *PaymentProcessor) consumeForAppointment(tx *gorm.DB, appointmentID uuid.UUID) error {
	var appointment models.Appointment
	if err := tx.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		return err
	}
	if appointment.CustomerPackageID == nil {
		return ErrServiceNotInPackage
	}

	var cp models.CustomerPackage
	if err := tx.Preload("Package").First(&cp, "id = ?", *appointment.CustomerPackageID).Error; err != nil {
		return err
	}
	if cp.Package.Type == models.PackageTypeTime {
		return p.ledger.ConsumeMinutesTx(tx, cp.ID, appointment.ID, appointment.ServiceID, appointment.DurationMinutes())
	}
	_, err := p.ledger.ConsumeTx(tx, cp.ID, appointment.ID, appointment.ServiceID, 1)
	return err
}

// postCashEntry appends an INVOICE_PAYMENT entry to the branch's open cash
// day. Cash strictly requires an open drawer; card and transfer settlements
// are recorded when a day is open and skipped otherwise.
func (p *PaymentProcessor) postCashEntry(tx *gorm.DB, branchID, userID uuid.UUID, method string, amount decimal.Decimal, description string) (*uuid.UUID, error) {
	var day models.CashDay
	err := tx.Where("branch_id = ? AND status = ?", branchID, models.CashDayStatusOpen).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if method == models.PaymentMethodCash {
			return nil, ErrCashDayNotOpen
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry := models.CashRegisterLog{
		BranchID:        branchID,
		CashDayID:       day.ID,
		Type:            models.CashEntryInvoicePayment,
		Amount:          amount,
		Description:     description,
		CreatedByUserID: userID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry.ID, nil
}

func (p *PaymentProcessor) bumpCustomerStats(tx *gorm.DB, invoice *models.Invoice) error {
	return tx.Model(&models.Customer{}).
		Where("id = ?", invoice.CustomerID).
		Updates(map[string]interface{}{
			"total_visits": gorm.Expr("total_visits + ?", 1),
			"total_spent":  gorm.Expr("total_spent + ?", invoice.TotalAmount),
			"last_visit":   invoice.InvoiceDate,
		}).Error
}
