package services

import "github.com/campuseats/campus-eats/models"

// transitions is the order lifecycle graph:
// pending -> accepted -> preparing -> ready -> picked-up, with cancellation
// allowed until preparation finishes. Ready and picked-up orders are not
// cancellable: the goods are already prepared or handed over.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusAccepted, models.OrderStatusCancelled},
	models.OrderStatusAccepted:  {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusPickedUp},
	models.OrderStatusPickedUp:  {},
	models.OrderStatusCancelled: {},
}

// KnownStatus reports whether s is one of the order lifecycle statuses.
func KnownStatus(s models.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether to is a permitted successor of from.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
