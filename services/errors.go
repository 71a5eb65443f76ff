package services

import "errors"

// Business errors surfaced by the settlement engine. Controllers map these
// to HTTP statuses; none of them is returned after a partial write commits.
var (
	// validation
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidMovementType = errors.New("invalid cash movement type")

	// state conflicts
	ErrAppointmentNotCompleted = errors.New("appointment is not completed")
	ErrInvoiceAlreadyExists    = errors.New("an invoice already exists for this source")
	ErrDayAlreadyOpen          = errors.New("a cash day is already open for this branch")
	ErrDayNotOpen              = errors.New("no open cash day for this branch")
	ErrCashDayNotOpen          = errors.New("cash payment requires an open cash day")
	ErrCommissionAlreadyExists = errors.New("commission already recorded for this invoice line")
	ErrPaymentAlreadyVoided    = errors.New("payment is already voided")
	ErrConcurrentUpdate        = errors.New("record was modified concurrently, retry the operation")

	// resource exhaustion
	ErrInsufficientSessions = errors.New("not enough remaining sessions")
	ErrPackageExpired       = errors.New("customer package has expired")
	ErrServiceNotInPackage  = errors.New("service is not part of this package")
	ErrOverpaymentRejected  = errors.New("payment exceeds the invoice debt")

	ErrNoApplicableRule = errors.New("no commission rule applies and no global fallback exists")
)
