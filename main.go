package main

import (
	"fmt"
	"log"
	"os"

	"glowdesk-backend/config"
	"glowdesk-backend/controllers"
	"glowdesk-backend/models"
	"glowdesk-backend/routes"
	"glowdesk-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Package{},
		&models.PackageService{},
		&models.CustomerPackage{},
		&models.PackageSessionBalance{},
		&models.SessionConsumption{},
		&models.Appointment{},
		&models.Invoice{},
		&models.Payment{},
		&models.CommissionRule{},
		&models.StaffCommission{},
		&models.CashDay{},
		&models.CashRegisterLog{},
		&models.NotificationLog{},
	)
}

func main() {
	notifier := services.NewNotifier(config.DB)
	notifier.StartScheduler()
	controllers.SetNotifier(notifier)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
