package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentStatusScheduled = "SCHEDULED"
	AppointmentStatusArrived   = "ARRIVED"
	AppointmentStatusCompleted = "COMPLETED"
	AppointmentStatusNoShow    = "NO_SHOW"
	AppointmentStatusCanceled  = "CANCELED"
)

type Appointment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	ServiceID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StaffID    uuid.UUID `gorm:"type:uuid;index;not null"`

	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'SCHEDULED'"`
	Notes     string

	// Set when the appointment is to be settled from a prepaid package.
	CustomerPackageID *uuid.UUID `gorm:"type:uuid;index"`
	PackageServiceID  *uuid.UUID `gorm:"type:uuid"`

	Customer Customer `gorm:"foreignKey:CustomerID"`
	Service  Service  `gorm:"foreignKey:ServiceID"`

	gorm.Model
}

// validTransitions lists the allowed appointment status moves.
var validTransitions = map[string][]string{
	AppointmentStatusScheduled: {AppointmentStatusArrived, AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCanceled},
	AppointmentStatusArrived:   {AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCanceled},
}

// CanTransitionTo reports whether the appointment may move to the given status.
func (a *Appointment) CanTransitionTo(status string) bool {
	for _, s := range validTransitions[a.Status] {
		if s == status {
			return true
		}
	}
	return false
}

// DurationMinutes is the booked length, used to debit TIME packages.
func (a *Appointment) DurationMinutes() int {
	return int(a.EndTime.Sub(a.StartTime).Minutes())
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
