package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"glowdesk-backend/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// Notifier sends the messages the ledger requests: package expiry warnings
// from a daily sweep and settlement confirmations after an invoice is paid.
// It only reads ledger state and writes notification logs; failures are
// logged, never propagated back into a settlement.
type Notifier struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

func NewNotifier(db *gorm.DB) *Notifier {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &Notifier{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: os.Getenv("TWILIO_PHONE_NUMBER"),
	}
}

// StartScheduler runs the expiry sweep every day at 9 AM.
func (n *Notifier) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 9 * * *", func() {
		n.SendExpiryReminders()
	})

	c.Start()
	log.Println("Package expiry scheduler started")
}

// SendExpiryReminders notifies customers whose packages expire within the
// next 7 days and still hold unconsumed sessions.
func (n *Notifier) SendExpiryReminders() {
	log.Println("Starting package expiry sweep...")

	cutoff := time.Now().AddDate(0, 0, 7)
	var packages []models.CustomerPackage
	if err := n.db.Preload("Customer").Preload("Package").Preload("Sessions").
		Where("expiry_date > ? AND expiry_date <= ?", time.Now(), cutoff).
		Find(&packages).Error; err != nil {
		log.Printf("Failed to fetch expiring packages: %v", err)
		return
	}

	for _, cp := range packages {
		if cp.IsExhausted() {
			continue
		}
		remaining := 0
		for _, s := range cp.Sessions {
			remaining += s.Remaining
		}
		message := fmt.Sprintf("Hi %s, your %s package expires on %s with %d sessions left. Book now to use them!",
			cp.Customer.Name, cp.Package.Name, cp.ExpiryDate.Format("02 Jan 2006"), remaining)
		n.send(cp.BranchID, cp.CustomerID, cp.Customer.Phone, "package_expiry", message)
	}

	log.Println("Package expiry sweep completed")
}

// NotifyInvoicePaid sends a settlement confirmation. Called after the
// payment transaction commits, fire-and-forget.
func (n *Notifier) NotifyInvoicePaid(invoice *models.Invoice) {
	var customer models.Customer
	if err := n.db.First(&customer, "id = ?", invoice.CustomerID).Error; err != nil {
		log.Printf("Invoice %s: failed to load customer for notification: %v", invoice.InvoiceNumber, err)
		return
	}
	message := fmt.Sprintf("Hi %s, we received your payment. Invoice %s is settled, total %s. Thank you!",
		customer.Name, invoice.InvoiceNumber, invoice.TotalAmount.StringFixed(2))
	n.send(invoice.BranchID, customer.ID, customer.Phone, "invoice_paid", message)
}

func (n *Notifier) send(branchID, customerID uuid.UUID, phone, notificationType, message string) {
	entry := models.NotificationLog{
		BranchID:   branchID,
		CustomerID: customerID,
		Type:       notificationType,
		Message:    message,
		Channel:    "sms",
		SentAt:     time.Now(),
	}

	if n.from == "" {
		entry.Status = "skipped"
		entry.ErrorMessage = "TWILIO_PHONE_NUMBER not configured"
	} else {
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(phone)
		params.SetFrom(n.from)
		params.SetBody(message)

		if _, err := n.client.Api.CreateMessage(params); err != nil {
			log.Printf("Failed to send %s notification to %s: %v", notificationType, phone, err)
			entry.Status = "failed"
			entry.ErrorMessage = err.Error()
		} else {
			entry.Status = "sent"
		}
	}

	if err := n.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to log notification: %v", err)
	}
}
