package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationLog records each outbound message the ledger requested. It is
// write-only from the engine's point of view and never feeds back into
// ledger state.
type NotificationLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`

	Type         string `gorm:"type:varchar(30)"` // package_expiry, invoice_paid
	Message      string `gorm:"type:text"`
	Status       string `gorm:"type:varchar(20)"` // sent, failed, skipped
	ErrorMessage string `gorm:"type:text"`
	Channel      string `gorm:"type:varchar(20)"` // sms, whatsapp
	SentAt       time.Time

	gorm.Model
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
