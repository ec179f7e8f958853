package payments

import "errors"

// Sentinel errors for the payment request service.
var (
	ErrNotFound      = errors.New("payment request not found")
	ErrInvalidAmount = errors.New("amount must be a non-negative number")
	ErrNoSalesPerson = errors.New("salesperson is required")
	ErrNotPending    = errors.New("payment request is not pending")
	ErrBusy          = errors.New("payment request is being updated by another operator")
)
