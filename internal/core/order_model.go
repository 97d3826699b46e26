package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderFinal is returned when a caller tries to move an order out of
	// its terminal status. Completing an already-completed order is the one
	// exception and is treated as an idempotent no-op instead.
	ErrOrderFinal = errors.New("order is already completed")

	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OrderStatus is the kitchen-facing lifecycle state of an order.
//
//	pending → in_progress → completed
//
// pending → completed directly is allowed (staff can complete an order
// without marking it in progress first). completed is terminal.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
}

// CanTransitionTo reports whether the status machine permits moving from
// s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// checkTransition returns a typed error explaining why s cannot move to
// next, or nil if the move is allowed.
func (s OrderStatus) checkTransition(next OrderStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if s == StatusCompleted {
		return ErrOrderFinal
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s, next)
	}
	return nil
}

// LineItem is one sold unit within an order. Name references a product
// case-insensitively; Quantity is how many were sold.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Order is one customer transaction pulled from the external feed and
// recorded locally. ID is the feed's opaque identifier and never changes
// once the order is ingested.
type Order struct {
	ID          string      `json:"id"`
	CustomerRef string      `json:"customer_ref"`
	Status      OrderStatus `json:"status"`
	LineItems   []LineItem  `json:"line_items"`
	CreatedAt   time.Time   `json:"created_at"`
	IngestedAt  time.Time   `json:"ingested_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
