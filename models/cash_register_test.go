package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	ten := decimal.NewFromInt(10)

	assert.True(t, SignedAmount(CashEntryIncome, ten).Equal(ten))
	assert.True(t, SignedAmount(CashEntryManualIn, ten).Equal(ten))
	assert.True(t, SignedAmount(CashEntryInvoicePayment, ten).Equal(ten))
	assert.True(t, SignedAmount(CashEntryOutcome, ten).Equal(ten.Neg()))
	assert.True(t, SignedAmount(CashEntryManualOut, ten).Equal(ten.Neg()))

	// Callers may pass pre-signed amounts; normalization is by type only.
	assert.True(t, SignedAmount(CashEntryManualOut, ten.Neg()).Equal(ten.Neg()))
	assert.True(t, SignedAmount(CashEntryIncome, ten.Neg()).Equal(ten))
}

func TestExpectedBalanceFrom(t *testing.T) {
	opening := decimal.NewFromInt(200)
	entries := []CashRegisterLog{
		{Type: CashEntryOpening, Amount: opening},
		{Type: CashEntryInvoicePayment, Amount: decimal.NewFromInt(900)},
		{Type: CashEntryManualOut, Amount: decimal.NewFromInt(-50)},
		{Type: CashEntryIncome, Amount: decimal.NewFromInt(25)},
		{Type: CashEntryClosing, Amount: decimal.NewFromInt(9999)},
	}

	got := ExpectedBalanceFrom(opening, entries)
	assert.True(t, got.Equal(decimal.NewFromInt(1075)), "expected = %s", got)
}

func TestExpectedBalanceFromNoMovements(t *testing.T) {
	opening := decimal.NewFromInt(200)
	assert.True(t, ExpectedBalanceFrom(opening, nil).Equal(opening))
}
