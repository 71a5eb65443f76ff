package controllers

import (
	"errors"
	"net/http"
	"time"

	"glowdesk-backend/config"
	"glowdesk-backend/models"
	"glowdesk-backend/services"
	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PackageServiceInput is one (service, quantity) entry of a package.
type PackageServiceInput struct {
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreatePackageInput defines the expected JSON structure for a catalog package.
type CreatePackageInput struct {
	Name             string                `json:"name" binding:"required"`
	Description      string                `json:"description"`
	Price            decimal.Decimal       `json:"price" binding:"required"`
	ValidityDays     int                   `json:"validityDays" binding:"required,min=1"`
	Type             string                `json:"type" binding:"omitempty,oneof=SESSION TIME"`
	TotalMinutes     int                   `json:"totalMinutes" binding:"min=0"`
	Services         []PackageServiceInput `json:"services"`
	CommissionType   string                `json:"commissionType" binding:"omitempty,oneof=PERCENTAGE FIXED_AMOUNT"`
	CommissionRate   decimal.Decimal       `json:"commissionRate"`
	CommissionAmount decimal.Decimal       `json:"commissionAmount"`
}

// SellPackageInput requests a package sale to a customer.
type SellPackageInput struct {
	CustomerID   uuid.UUID        `json:"customerId" binding:"required"`
	DiscountRate *decimal.Decimal `json:"discountRate"`
}

// CreatePackage creates a catalog package with its service composition.
func CreatePackage(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var input CreatePackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	pkgType := input.Type
	if pkgType == "" {
		pkgType = models.PackageTypeSession
	}
	if pkgType == models.PackageTypeSession && len(input.Services) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "A SESSION package needs at least one service entry")
		return
	}
	if pkgType == models.PackageTypeTime && input.TotalMinutes <= 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "A TIME package needs totalMinutes")
		return
	}

	pkg := models.Package{
		BranchID:         branchID,
		Name:             input.Name,
		Description:      input.Description,
		Price:            input.Price,
		ValidityDays:     input.ValidityDays,
		Type:             pkgType,
		TotalMinutes:     input.TotalMinutes,
		CommissionType:   input.CommissionType,
		CommissionRate:   input.CommissionRate,
		CommissionAmount: input.CommissionAmount,
		IsActive:         true,
	}
	if pkg.CommissionType == "" {
		pkg.CommissionType = models.CommissionTypePercentage
	}

	totalSessions := 0
	for _, entry := range input.Services {
		// Validate service exists and belongs to the same branch
		var service models.Service
		if err := config.DB.Where("branch_id = ? AND id = ?", branchID, entry.ServiceID).
			First(&service).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Service not found: "+entry.ServiceID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		totalSessions += entry.Quantity
		pkg.Services = append(pkg.Services, models.PackageService{
			ServiceID: entry.ServiceID,
			Quantity:  entry.Quantity,
		})
	}
	pkg.TotalSessions = totalSessions

	if err := config.DB.Create(&pkg).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create package")
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// GetPackages lists the branch's catalog packages with their composition.
func GetPackages(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	var packages []models.Package
	if err := config.DB.Preload("Services.Service").
		Where("branch_id = ?", branchID).Find(&packages).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve packages")
		return
	}

	c.JSON(http.StatusOK, packages)
}

// UpdatePackageInput edits a catalog package that has not been sold yet.
type UpdatePackageInput struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	ValidityDays *int             `json:"validityDays"`
}

// UpdatePackage edits a catalog template. A template with sold instances is
// immutable; only deactivation is allowed then.
func UpdatePackage(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	packageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input UpdatePackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sold, err := soldInstanceCount(packageID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if sold > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Package has sold instances and is immutable")
		return
	}

	var pkg models.Package
	if err := config.DB.Where("branch_id = ? AND id = ?", branchID, packageID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Package not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		pkg.Name = *input.Name
	}
	if input.Description != nil {
		pkg.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
			return
		}
		pkg.Price = *input.Price
	}
	if input.ValidityDays != nil {
		pkg.ValidityDays = *input.ValidityDays
	}

	if err := config.DB.Save(&pkg).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// DeletePackage retires a catalog package. Templates with sold instances are
// immutable and can only be deactivated.
func DeletePackage(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	packageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sold, err := soldInstanceCount(packageID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if sold > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Package has sold instances; deactivate it instead")
		return
	}

	result := config.DB.Where("branch_id = ? AND id = ?", branchID, packageID).
		Delete(&models.Package{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete package")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Package not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Package deleted successfully"})
}

// DeactivatePackage takes a package off sale without touching sold instances.
func DeactivatePackage(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	packageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result := config.DB.Model(&models.Package{}).
		Where("branch_id = ? AND id = ?", branchID, packageID).
		Update("is_active", false)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate package")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Package not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Package deactivated"})
}

// SellPackage sells a catalog package to a customer: one CustomerPackage
// with a fresh session ledger plus its UNPAID purchase invoice.
func SellPackage(c *gin.Context) {
	branchID, userID, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}
	packageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input SellPackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	builder := services.NewInvoiceBuilder(config.DB)
	invoice, customerPackage, err := builder.FromPackageSale(branchID, input.CustomerID, packageID, userID, input.DiscountRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invoice":         invoice,
		"customerPackage": customerPackage,
	})
}

// customerPackageView is the response shape of the customer-packages-with-status
// endpoint: the purchased instance plus its derived status and balances.
type customerPackageView struct {
	ID               uuid.UUID                      `json:"id"`
	CustomerID       uuid.UUID                      `json:"customerId"`
	CustomerName     string                         `json:"customerName"`
	PackageID        uuid.UUID                      `json:"packageId"`
	PackageName      string                         `json:"packageName"`
	PurchaseDate     time.Time                      `json:"purchaseDate"`
	ExpiryDate       time.Time                      `json:"expiryDate"`
	DaysRemaining    int                            `json:"daysRemaining"`
	Status           string                         `json:"status"`
	Sessions         []models.PackageSessionBalance `json:"sessions"`
	TotalMinutes     int                            `json:"totalMinutes,omitempty"`
	RemainingMinutes int                            `json:"remainingMinutes,omitempty"`
}

// GetCustomerPackagesWithStatus lists every purchased package of the branch
// with its derived status (ACTIVE / EXPIRED / EXHAUSTED). Optional
// customerId query parameter narrows to one customer.
func GetCustomerPackagesWithStatus(c *gin.Context) {
	branchID, _, ok := branchAndUserFromContext(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Sessions").Preload("Package").Preload("Customer").
		Where("branch_id = ?", branchID)
	if raw := c.Query("customerId"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customerId format")
			return
		}
		query = query.Where("customer_id = ?", customerID)
	}

	var packages []models.CustomerPackage
	if err := query.Find(&packages).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customer packages")
		return
	}

	now := time.Now()
	views := make([]customerPackageView, 0, len(packages))
	for _, cp := range packages {
		daysRemaining := utils.DaysBetween(now, cp.ExpiryDate)
		if daysRemaining < 0 {
			daysRemaining = 0
		}
		views = append(views, customerPackageView{
			ID:               cp.ID,
			CustomerID:       cp.CustomerID,
			CustomerName:     cp.Customer.Name,
			PackageID:        cp.PackageID,
			PackageName:      cp.Package.Name,
			PurchaseDate:     cp.PurchaseDate,
			ExpiryDate:       cp.ExpiryDate,
			DaysRemaining:    daysRemaining,
			Status:           cp.Status(now),
			Sessions:         cp.Sessions,
			TotalMinutes:     cp.TotalMinutes,
			RemainingMinutes: cp.RemainingMinutes,
		})
	}

	c.JSON(http.StatusOK, views)
}

func soldInstanceCount(packageID uuid.UUID) (int64, error) {
	var count int64
	err := config.DB.Model(&models.CustomerPackage{}).
		Where("package_id = ?", packageID).Count(&count).Error
	return count, err
}
