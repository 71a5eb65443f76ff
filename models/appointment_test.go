package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusArrived, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, true},
		{AppointmentStatusScheduled, AppointmentStatusNoShow, true},
		{AppointmentStatusScheduled, AppointmentStatusCanceled, true},
		{AppointmentStatusArrived, AppointmentStatusCompleted, true},
		{AppointmentStatusArrived, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCanceled, false},
		{AppointmentStatusCanceled, AppointmentStatusScheduled, false},
		{AppointmentStatusNoShow, AppointmentStatusCompleted, false},
	}
	for _, tt := range tests {
		a := Appointment{Status: tt.from}
		assert.Equal(t, tt.want, a.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	a := Appointment{StartTime: start, EndTime: start.Add(90 * time.Minute)}
	assert.Equal(t, 90, a.DurationMinutes())
}
