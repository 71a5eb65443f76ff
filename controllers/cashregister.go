package controllers

import (
	"net/http"

	"glowdesk-backend/config"
	"glowdesk-backend/services"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OpenDayInput opens the branch's cash drawer.
type OpenDayInput struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// PostMovementInput appends a manual drawer movement.
type PostMovementInput struct {
	Type        string          `json:"type" binding:"required,oneof=INCOME OUTCOME MANUAL_IN MANUAL_OUT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// CloseDayInput closes the drawer with the counted balance.
type CloseDayInput struct {
	ActualBalance decimal.Decimal `json:"actualBalance"`
}

// OpenCashDay opens the branch's daily cash drawer. A second open attempt
// while a day is running conflicts.
func OpenCashDay(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input OpenDayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reconciler := services.NewCashDayReconciler(config.DB)
	day, err := reconciler.OpenDay(branchID, input.OpeningBalance, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, day)
}

// PostCashMovement appends a signed manual entry to the open day.
func PostCashMovement(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input PostMovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reconciler := services.NewCashDayReconciler(config.DB)
	entry, err := reconciler.PostMovement(branchID, input.Type, input.Amount, input.Description, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// CloseCashDay reconciles and closes the open day, recording the difference
// between counted and expected balances.
func CloseCashDay(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input CloseDayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reconciler := services.NewCashDayReconciler(config.DB)
	day, err := reconciler.CloseDay(branchID, input.ActualBalance, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// GetCurrentCashDay returns the open day with its entries.
func GetCurrentCashDay(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	reconciler := services.NewCashDayReconciler(config.DB)
	day, err := reconciler.CurrentDay(branchID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}
