// Package errors provides the typed business errors shared by the exchange core
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// As is re-exported so handlers can unwrap to *Error without a second import
var As = errors.As

// Error kinds. These are the caller-recoverable outcomes of the wallet,
// market and transfer engines; anything else is an internal error.
const (
	KindNotFound                  = "NotFound"
	KindSelfTrade                 = "SelfTrade"
	KindInsufficientFunds         = "InsufficientFunds"
	KindInsufficientListingAmount = "InsufficientListingAmount"
	KindDuplicateListing          = "DuplicateListing"
	KindDuplicateWallet           = "DuplicateWallet"
	KindCurrencyMismatch          = "CurrencyMismatch"
	KindInvalidCurrencyType       = "InvalidCurrencyType"
	KindValidation                = "Validation"
)

// Error is a custom error type for passing more information
type Error struct {
	// Kind is the returned error type
	Kind string `json:"kind"`
	// Message is the human readable string that indicate the error
	Message string `json:"message"`
}

var _ error = (*Error)(nil)

// Error implements error
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// HTTPStatus maps the error kind to an HTTP status code
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindSelfTrade, KindInsufficientFunds, KindInsufficientListingAmount,
		KindDuplicateListing, KindDuplicateWallet, KindCurrencyMismatch,
		KindInvalidCurrencyType, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind string) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// NotFound returns a NotFound error naming the missing entity kind
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// SelfTrade returns the error for a buyer filling their own listing
func SelfTrade() *Error {
	return &Error{Kind: KindSelfTrade, Message: "cannot buy from your own listing"}
}

// InsufficientFunds returns the error for a debit exceeding the balance
func InsufficientFunds(message string) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: message}
}

// InsufficientListingAmount returns the error for a fill exceeding the
// listing's remaining amount
func InsufficientListingAmount() *Error {
	return &Error{Kind: KindInsufficientListingAmount, Message: "not enough crypto remaining in the listing"}
}

// DuplicateListing returns the error for a crypto wallet that already has an
// open listing
func DuplicateListing() *Error {
	return &Error{Kind: KindDuplicateListing, Message: "listing already exists for this wallet"}
}

// DuplicateWallet returns the error for a user who already holds a wallet for
// the currency
func DuplicateWallet() *Error {
	return &Error{Kind: KindDuplicateWallet, Message: "wallet already exists for this currency"}
}

// CurrencyMismatch returns the error for a transfer between wallets holding
// different currencies
func CurrencyMismatch() *Error {
	return &Error{Kind: KindCurrencyMismatch, Message: "sender and receiver wallets must hold the same currency"}
}

// InvalidCurrencyType returns the error for an operation on a wallet whose
// currency kind does not allow it
func InvalidCurrencyType(message string) *Error {
	return &Error{Kind: KindInvalidCurrencyType, Message: message}
}

// Validation returns the error for a model failing its struct tag checks
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}
