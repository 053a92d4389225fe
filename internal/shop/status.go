package shop

import (
	"github.com/evercart/evercart/internal/domain"
)

// Legal order status transitions. Refunded is reached through refund
// approval on shipped or delivered orders.
var orderTransitions = map[string][]string{
	domain.OrderPending:   {domain.OrderShipped, domain.OrderCancelled},
	domain.OrderShipped:   {domain.OrderDelivered, domain.OrderRefunded},
	domain.OrderDelivered: {domain.OrderRefunded},
}

// CanTransition reports whether from→to is a legal order move.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether an order can no longer move.
func IsTerminal(status string) bool {
	return len(orderTransitions[status]) == 0
}
