package services

import (
	"errors"
	"fmt"

	"github.com/campuseats/campus-eats/models"
)

// ErrNotOrderOutlet is returned when staff of one outlet try to progress
// another outlet's order.
var ErrNotOrderOutlet = errors.New("order belongs to a different outlet")

// ValidationError rejects a malformed request before anything is persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a missing order, outlet or menu item.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// OutletClosedError rejects order creation against a closed outlet.
type OutletClosedError struct {
	OutletID uint
}

func (e *OutletClosedError) Error() string {
	return fmt.Sprintf("outlet %d is closed", e.OutletID)
}

// InvalidTransitionError rejects a status update that is not a legal
// successor of the order's current status.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}
