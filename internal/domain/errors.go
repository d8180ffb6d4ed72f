// Package domain holds the error kinds shared by the order, catalog and
// directory packages so callers can classify failures with errors.Is/As.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")

	// ErrRetryableStorage marks a transient persistence failure. The whole
	// operation was rolled back and may be retried by the caller.
	ErrRetryableStorage = errors.New("transient storage failure")
)

// InsufficientStockError reports a reservation or adjustment that would have
// driven a product's stock below zero.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("only %d left of product %s (requested %d)", e.Available, name, e.Requested)
}

// IsInsufficientStock unwraps err into an InsufficientStockError if it is one.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
