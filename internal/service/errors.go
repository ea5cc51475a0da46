package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("entity not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrSequenceContention = errors.New("sequence contention, try again")
	ErrSequenceNotFound   = errors.New("sequence not found")
	ErrOrderNotDraft      = errors.New("order is not a draft")
	ErrOrderNotConfirmed  = errors.New("order is not confirmed")
	ErrInvoiceExists      = errors.New("invoice already issued for order")
)

// NotFoundError identifies the line-item target that could not be loaded.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError identifies the managed-stock row that would go negative.
type InsufficientStockError struct {
	Entity    string
	ID        uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %s: available %d, requested %d",
		e.Entity, e.ID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
