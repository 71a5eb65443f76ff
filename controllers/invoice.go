// controllers/invoice.go
package controllers

import (
	"errors"
	"net/http"

	"glowdesk-backend/config"
	"glowdesk-backend/models"
	"glowdesk-backend/services"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// notifier is wired in from main; settlement confirmations are optional and
// fire-and-forget.
var notifier *services.Notifier

// SetNotifier installs the notification sender used after settlements.
func SetNotifier(n *services.Notifier) {
	notifier = n
}

// CreateInvoiceFromServiceInput derives an invoice from a completed appointment.
type CreateInvoiceFromServiceInput struct {
	AppointmentID uuid.UUID        `json:"appointmentId" binding:"required"`
	DiscountRate  *decimal.Decimal `json:"discountRate"`
}

// ApplyPaymentInput settles an amount against an invoice.
type ApplyPaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required,oneof=CASH CREDIT_CARD BANK_TRANSFER CUSTOMER_CREDIT"`
}

// CreateInvoiceFromService creates the invoice for a completed appointment.
// Creation is idempotent: a second call for the same appointment conflicts.
func CreateInvoiceFromService(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input CreateInvoiceFromServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	builder := services.NewInvoiceBuilder(config.DB)
	invoice, err := builder.FromAppointment(branchID, input.AppointmentID, userID, input.DiscountRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices retrieves all invoices for the branch
func GetInvoices(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Payments").Where("branch_id = ?", branchID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Order("invoice_date DESC").Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves a specific invoice by ID
func GetInvoice(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	invoiceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Payments").
		Where("branch_id = ? AND id = ?", branchID, invoiceID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ApplyPayment settles an amount against the invoice and returns its new
// state. Overpayment, closed cash day and concurrent settlements are
// rejected without side effects.
func ApplyPayment(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	invoiceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input ApplyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	processor := services.NewPaymentProcessor(config.DB)
	invoice, err := processor.ApplyPayment(branchID, invoiceID, input.Amount, input.Method, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if invoice.Status == models.InvoiceStatusPaid && notifier != nil {
		go notifier.NotifyInvoicePaid(invoice)
	}

	c.JSON(http.StatusOK, invoice)
}

// VoidPayment reverses a settlement, returning the invoice's rolled-back
// state. The payment row is kept for audit.
func VoidPayment(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	processor := services.NewPaymentProcessor(config.DB)
	invoice, err := processor.VoidPayment(branchID, paymentID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}
