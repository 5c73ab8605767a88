package order

import (
	"pos_system/constants"
)

// Forward-only progression; cancelled is reachable from any
// non-terminal status and both completed and cancelled are terminal.
var nextStatus = map[string]string{
	constants.ORDER_STATUS_PENDING:   constants.ORDER_STATUS_PREPARING,
	constants.ORDER_STATUS_PREPARING: constants.ORDER_STATUS_READY,
	constants.ORDER_STATUS_READY:     constants.ORDER_STATUS_SERVED,
	constants.ORDER_STATUS_SERVED:    constants.ORDER_STATUS_COMPLETED,
}

var itemStatuses = map[string]bool{
	constants.ORDER_STATUS_PENDING:   true,
	constants.ORDER_STATUS_PREPARING: true,
	constants.ORDER_STATUS_READY:     true,
	constants.ORDER_STATUS_SERVED:    true,
	constants.ORDER_STATUS_CANCELLED: true,
}

func IsTerminalStatus(status string) bool {
	return status == constants.ORDER_STATUS_COMPLETED || status == constants.ORDER_STATUS_CANCELLED
}

// CanTransition reports whether an order may move from one status to
// the next requested one.
func CanTransition(from, to string) bool {
	if IsTerminalStatus(from) {
		return false
	}
	if to == constants.ORDER_STATUS_CANCELLED {
		return true
	}
	return nextStatus[from] == to
}

// IsValidItemStatus checks item-level statuses, which move
// independently of the owning order's status.
func IsValidItemStatus(status string) bool {
	return itemStatuses[status]
}

func IsValidOrderType(orderType string) bool {
	switch orderType {
	case constants.ORDER_TYPE_DINE_IN, constants.ORDER_TYPE_TAKEAWAY, constants.ORDER_TYPE_DELIVERY:
		return true
	}
	return false
}
