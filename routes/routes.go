package routes

import (
	"glowdesk-backend/config"
	"glowdesk-backend/controllers"
	"glowdesk-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Service catalog routes
		services := api.Group("/services")
		{
			services.POST("", controllers.CreateService)
			services.GET("", controllers.GetServices)
			services.GET("/:id", controllers.GetService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		// Package catalog and session ledger routes
		packages := api.Group("/packages")
		{
			packages.POST("", controllers.CreatePackage)
			packages.GET("", controllers.GetPackages)
			packages.PUT("/:id", controllers.UpdatePackage)
			packages.DELETE("/:id", controllers.DeletePackage)
			packages.POST("/:id/deactivate", controllers.DeactivatePackage)
			packages.POST("/:id/sell", controllers.SellPackage)
			packages.GET("/customer-packages-with-status", controllers.GetCustomerPackagesWithStatus)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.PATCH("/:id/status", controllers.UpdateAppointmentStatus)
		}

		// Invoice and payment routes
		invoices := api.Group("/invoices")
		{
			invoices.POST("/from-service", controllers.CreateInvoiceFromService)
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.POST("/:id/payments", controllers.ApplyPayment)
		}
		api.POST("/payments/:id/void", controllers.VoidPayment)

		// Cash register routes
		cashRegister := api.Group("/cash-register")
		{
			cashRegister.POST("/open", controllers.OpenCashDay)
			cashRegister.POST("/movement", controllers.PostCashMovement)
			cashRegister.POST("/close", controllers.CloseCashDay)
			cashRegister.GET("/current", controllers.GetCurrentCashDay)
		}

		// Commission routes
		commissions := api.Group("/commissions")
		{
			commissions.POST("/rules", controllers.CreateCommissionRule)
			commissions.GET("/rules", controllers.GetCommissionRules)
			commissions.POST("/rules/:id/deactivate", controllers.DeactivateCommissionRule)
			commissions.GET("", controllers.GetStaffCommissions)
		}

		// Staff routes
		staff := api.Group("/staff")
		{
			staff.GET("", controllers.GetStaff)
			staff.POST("", controllers.AddStaff)
		}
	}

	return r
}
