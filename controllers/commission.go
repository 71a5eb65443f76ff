package controllers

import (
	"net/http"

	"glowdesk-backend/config"
	"glowdesk-backend/models"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCommissionRuleInput defines a commission rule. Omitting serviceId
// and staffId makes it the branch's global fallback.
type CreateCommissionRuleInput struct {
	ServiceID *uuid.UUID      `json:"serviceId"`
	StaffID   *uuid.UUID      `json:"staffId"`
	Type      string          `json:"type" binding:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreateCommissionRule adds a rule to the branch's rule set.
func CreateCommissionRule(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input CreateCommissionRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Type == models.CommissionTypePercentage &&
		(input.Rate.IsNegative() || input.Rate.GreaterThan(decimal.NewFromInt(100))) {
		utils.RespondWithError(c, http.StatusBadRequest, "Rate must be between 0 and 100")
		return
	}
	if input.Type == models.CommissionTypeFixed && input.Amount.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must not be negative")
		return
	}

	rule := models.CommissionRule{
		BranchID:  branchID,
		ServiceID: input.ServiceID,
		StaffID:   input.StaffID,
		Type:      input.Type,
		Rate:      input.Rate,
		Amount:    input.Amount,
		IsActive:  true,
	}
	if err := config.DB.Create(&rule).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create commission rule")
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetCommissionRules lists the branch's rules.
func GetCommissionRules(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var rules []models.CommissionRule
	if err := config.DB.Where("branch_id = ?", branchID).Find(&rules).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve commission rules")
		return
	}

	c.JSON(http.StatusOK, rules)
}

// DeactivateCommissionRule retires a rule from resolution without deleting
// the commissions it produced.
func DeactivateCommissionRule(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result := config.DB.Model(&models.CommissionRule{}).
		Where("branch_id = ? AND id = ?", branchID, ruleID).
		Update("is_active", false)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate rule")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Commission rule not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Commission rule deactivated"})
}

// GetStaffCommissions lists commissions, optionally filtered by staff member
// or reversal state.
func GetStaffCommissions(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Where("branch_id = ?", branchID)
	if raw := c.Query("staffId"); raw != "" {
		staffID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid staffId format")
			return
		}
		query = query.Where("staff_id = ?", staffID)
	}
	if c.Query("includeReversed") != "true" {
		query = query.Where("is_reversed = ?", false)
	}

	var commissions []models.StaffCommission
	if err := query.Order("created_at DESC").Find(&commissions).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve commissions")
		return
	}

	c.JSON(http.StatusOK, commissions)
}
