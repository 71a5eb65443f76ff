package controllers

import (
	"errors"
	"net/http"

	"glowdesk-backend/services"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondServiceError translates engine errors into HTTP statuses:
// validation 400, state conflicts 409, business-rule rejections 422,
// missing records 404, everything else 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidMovementType):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAppointmentNotCompleted),
		errors.Is(err, services.ErrInvoiceAlreadyExists),
		errors.Is(err, services.ErrDayAlreadyOpen),
		errors.Is(err, services.ErrDayNotOpen),
		errors.Is(err, services.ErrCashDayNotOpen),
		errors.Is(err, services.ErrCommissionAlreadyExists),
		errors.Is(err, services.ErrPaymentAlreadyVoided),
		errors.Is(err, services.ErrConcurrentUpdate):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInsufficientSessions),
		errors.Is(err, services.ErrPackageExpired),
		errors.Is(err, services.ErrServiceNotInPackage),
		errors.Is(err, services.ErrOverpaymentRejected),
		errors.Is(err, services.ErrNoApplicableRule):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Record not found")
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}
