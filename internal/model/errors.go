package model

import (
	"errors"
	"fmt"

	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// Failure kinds returned by the core. None of them are fatal; every
// operation leaves catalog and coin inventory consistent after a failure.
var (
	ErrNotFound               = errors.New("not found")
	ErrExists                 = errors.New("already exists")
	ErrOutOfStock             = errors.New("out of stock")
	ErrUnacceptedDenomination = errors.New("denomination not accepted")
	ErrInsufficientPayment    = errors.New("insufficient payment")
	ErrInsufficientStock      = errors.New("insufficient coin stock")
	ErrChangeUnavailable      = errors.New("exact change unavailable")
	ErrInvalidInput           = errors.New("invalid input")
)

// InsufficientPaymentError carries how much more money the buyer owes.
// It matches ErrInsufficientPayment under errors.Is.
type InsufficientPaymentError struct {
	Shortfall money.Amount
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: short by %s", e.Shortfall)
}

func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}
