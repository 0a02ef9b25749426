package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidUsername = errors.New("username must be 3-30 characters (letters, digits and underscore only)")
	ErrMessageTooLong  = errors.New("message must be 500 characters or less")

	// ErrNotRecipient wraps ErrUnauthorized: the caller proved control of an
	// address, but not of the one owning the payment's username.
	ErrNotRecipient = fmt.Errorf("%w: caller is not the recipient of this payment", ErrUnauthorized)
)
