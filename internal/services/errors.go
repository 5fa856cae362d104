package services

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentAlreadyTracked = errors.New("payment id is already tracked")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrSaqueNotFound         = errors.New("saque not found")
	ErrInsufficientBalance   = errors.New("saldo insuficiente para saque")
)

// ValidationError marks missing or malformed request fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidStateError marks an operation attempted against an entity that
// is not in an eligible state. Rule names the guard that blocked it.
type InvalidStateError struct {
	Op   string
	Rule string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Rule)
}

// GatewayError wraps an upstream payment-provider failure.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
