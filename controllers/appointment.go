package controllers

import (
	"errors"
	"net/http"
	"time"

	"glowdesk-backend/config"
	"glowdesk-backend/models"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAppointmentInput defines the expected JSON structure for booking.
type CreateAppointmentInput struct {
	CustomerID        uuid.UUID  `json:"customerId" binding:"required"`
	ServiceID         uuid.UUID  `json:"serviceId" binding:"required"`
	StaffID           uuid.UUID  `json:"staffId" binding:"required"`
	StartTime         time.Time  `json:"startTime" binding:"required"`
	EndTime           time.Time  `json:"endTime" binding:"required"`
	CustomerPackageID *uuid.UUID `json:"customerPackageId"`
	Notes             string     `json:"notes"`
}

// UpdateAppointmentStatusInput moves an appointment through its lifecycle.
type UpdateAppointmentStatusInput struct {
	Status string `json:"status" binding:"required,oneof=SCHEDULED ARRIVED COMPLETED NO_SHOW CANCELED"`
}

// CreateAppointment books a service for a customer. When a customer package
// is attached, the booked service must be covered by that package.
func CreateAppointment(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !input.EndTime.After(input.StartTime) {
		utils.RespondWithError(c, http.StatusBadRequest, "endTime must be after startTime")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("branch_id = ? AND id = ?", branchID, input.CustomerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	var service models.Service
	if err := config.DB.Where("branch_id = ? AND id = ?", branchID, input.ServiceID).
		First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Service not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	appointment := models.Appointment{
		BranchID:   branchID,
		CustomerID: input.CustomerID,
		ServiceID:  input.ServiceID,
		StaffID:    input.StaffID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     models.AppointmentStatusScheduled,
		Notes:      input.Notes,
	}

	if input.CustomerPackageID != nil {
		var cp models.CustomerPackage
		if err := config.DB.Preload("Package").
			Where("branch_id = ? AND id = ? AND customer_id = ?", branchID, *input.CustomerPackageID, input.CustomerID).
			First(&cp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Customer package not found for this customer")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		if cp.Package.Type == models.PackageTypeSession {
			var balance models.PackageSessionBalance
			if err := config.DB.Where("customer_package_id = ? AND service_id = ?", cp.ID, input.ServiceID).
				First(&balance).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					utils.RespondWithError(c, http.StatusBadRequest, "Service is not covered by this package")
				} else {
					utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				}
				return
			}
			appointment.PackageServiceID = &balance.ID
		}
		appointment.CustomerPackageID = &cp.ID
	}

	if err := config.DB.Create(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments lists the branch's appointments, optionally filtered by
// status or customer.
func GetAppointments(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Customer").Preload("Service").
		Where("branch_id = ?", branchID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("customerId"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customerId format")
			return
		}
		query = query.Where("customer_id = ?", customerID)
	}

	var appointments []models.Appointment
	if err := query.Order("start_time").Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// UpdateAppointmentStatus transitions an appointment through its lifecycle.
// Only COMPLETED appointments can later generate an invoice.
func UpdateAppointmentStatus(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input UpdateAppointmentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var appointment models.Appointment
	if err := config.DB.Where("branch_id = ? AND id = ?", branchID, appointmentID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !appointment.CanTransitionTo(input.Status) {
		utils.RespondWithError(c, http.StatusConflict,
			"Cannot transition appointment from "+appointment.Status+" to "+input.Status)
		return
	}

	if err := config.DB.Model(&appointment).Update("status", input.Status).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}
	appointment.Status = input.Status

	c.JSON(http.StatusOK, appointment)
}
