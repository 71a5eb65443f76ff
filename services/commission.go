package services

import (
	"errors"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionCalculator posts staff earnings when an invoice settles and
// flags them reversed when the funding payment is voided.
type CommissionCalculator struct {
	db *gorm.DB
}

func NewCommissionCalculator(db *gorm.DB) *CommissionCalculator {
	return &CommissionCalculator{db: db}
}

// ResolveRule picks the effective rule for an invoice line by precedence:
// a rule scoped to the service beats one scoped to the staff member, which
// beats the global fallback.
func ResolveRule(rules []models.CommissionRule, serviceID, staffID uuid.UUID) (*models.CommissionRule, error) {
	var best *models.CommissionRule
	for i := range rules {
		r := &rules[i]
		if !r.IsActive {
			continue
		}
		if r.ServiceID != nil && *r.ServiceID != serviceID {
			continue
		}
		if r.StaffID != nil && *r.StaffID != staffID {
			continue
		}
		if best == nil || r.Specificity() > best.Specificity() {
			best = r
		}
	}
	if best == nil {
		return nil, ErrNoApplicableRule
	}
	return best, nil
}

// ComputeForInvoice posts the commission for a settled invoice. It runs in
// the caller's transaction so the commission commits or rolls back with the
// payment that funded it.
func (c *CommissionCalculator) ComputeForInvoice(tx *gorm.DB, invoice *models.Invoice) ([]models.StaffCommission, error) {
	if invoice.StaffID == nil {
		return nil, nil
	}
	staffID := *invoice.StaffID

	var commission models.StaffCommission

	if invoice.SourceType == models.InvoiceSourcePackageSale {
		// Package sales carry their own commission config on the catalog
		// template instead of going through the rule table.
		var cp models.CustomerPackage
		if err := tx.Preload("Package").First(&cp, "id = ?", *invoice.CustomerPackageID).Error; err != nil {
			return nil, err
		}
		rule := models.CommissionRule{
			Type:   cp.Package.CommissionType,
			Rate:   cp.Package.CommissionRate,
			Amount: cp.Package.CommissionAmount,
		}
		amount := rule.CommissionAmount(invoice.TotalAmount)
		if amount.IsZero() {
			return nil, nil
		}
		commission = models.StaffCommission{
			BranchID:  invoice.BranchID,
			InvoiceID: invoice.ID,
			StaffID:   staffID,
			ServiceID: cp.PackageID, // line key for the uniqueness constraint
			Amount:    amount,
		}
	} else {
		if invoice.ServiceID == nil {
			return nil, nil
		}
		var rules []models.CommissionRule
		if err := tx.Where("branch_id = ?", invoice.BranchID).Find(&rules).Error; err != nil {
			return nil, err
		}
		rule, err := ResolveRule(rules, *invoice.ServiceID, staffID)
		if errors.Is(err, ErrNoApplicableRule) {
			// Rule presence is a configuration concern; a branch with no
			// matching rule simply owes no commission, the settlement that
			// asked for it must not fail.
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		commission = models.StaffCommission{
			BranchID:  invoice.BranchID,
			InvoiceID: invoice.ID,
			StaffID:   staffID,
			ServiceID: *invoice.ServiceID,
			RuleID:    &rule.ID,
			Amount:    rule.CommissionAmount(invoice.TotalAmount),
		}
	}

	if err := tx.Create(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A reversed line from an earlier void can be re-armed when the
			// invoice settles again; a live line is a true duplicate.
			res := tx.Model(&models.StaffCommission{}).
				Where("invoice_id = ? AND staff_id = ? AND service_id = ? AND is_reversed = ?",
					commission.InvoiceID, commission.StaffID, commission.ServiceID, true).
				Updates(map[string]interface{}{"is_reversed": false, "amount": commission.Amount})
			if res.Error != nil {
				return nil, res.Error
			}
			if res.RowsAffected == 0 {
				return nil, ErrCommissionAlreadyExists
			}
			return nil, nil
		}
		return nil, err
	}
	return []models.StaffCommission{commission}, nil
}

// ReverseForInvoice flags every live commission of the invoice as reversed.
// Rows are kept for audit; the guarded update makes repeated voids no-ops.
func (c *CommissionCalculator) ReverseForInvoice(tx *gorm.DB, invoiceID uuid.UUID) error {
	return tx.Model(&models.StaffCommission{}).
		Where("invoice_id = ? AND is_reversed = ?", invoiceID, false).
		Update("is_reversed", true).Error
}
