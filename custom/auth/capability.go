package auth

import (
	"strings"

	"pos_system/constants"
)

// Capability tokens owned by each role. A token may be hierarchical
// ("orders:view"); holding the parent ("orders") grants every child.
// Only one level of nesting is resolved: a requested token is matched
// literally or by the segment before its first ':'.
var rolePermissions = map[string][]string{
	constants.ROLE_ADMIN: {"*"},
	constants.ROLE_MANAGER: {
		"orders", "tables", "payments", "products", "staff:view", "reports",
	},
	constants.ROLE_SERVER: {
		"orders:view", "orders:create", "orders:update", "orders:items", "orders:cancel",
		"tables:view", "tables:update", "tables:reserve", "products:view",
	},
	constants.ROLE_COUNTER: {
		"orders", "payments", "tables:view", "products:view",
	},
	constants.ROLE_KITCHEN: {
		"orders:view", "orders:items",
	},
}

// Roles allowed per route. A route absent from this table is denied
// for everyone but admin, so every reachable route must be enumerated
// here.
var routeRoles = map[string][]string{
	"/pos/list_orders":         {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER, constants.ROLE_KITCHEN},
	"/pos/query_order":         {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER, constants.ROLE_KITCHEN},
	"/pos/create_order":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/add_item":            {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/update_item_status":  {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_KITCHEN},
	"/pos/set_discount":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/transition_order":    {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/cancel_order":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/delete_order":        {constants.ROLE_ADMIN},
	"/pos/list_tables":         {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/create_table":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
	"/pos/update_table":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
	"/pos/update_table_status": {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER},
	"/pos/reserve_table":       {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER},
	"/pos/assign_table":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER},
	"/pos/delete_table":        {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
	"/pos/list_payments":       {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_COUNTER},
	"/pos/query_order_payments": {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_COUNTER},
	"/pos/create_payment":      {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_COUNTER},
	"/pos/refund_payment":      {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_COUNTER},
	"/pos/list_staff":          {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
	"/pos/create_staff":        {constants.ROLE_ADMIN},
	"/pos/update_staff":        {constants.ROLE_ADMIN},
	"/pos/delete_staff":        {constants.ROLE_ADMIN},
	"/pos/list_products":       {constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER, constants.ROLE_COUNTER},
	"/pos/create_products":     {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
	"/pos/update_product":      {constants.ROLE_ADMIN, constants.ROLE_MANAGER},
}

// CanPerform reports whether the role holds the requested capability.
// Fails closed on an empty or unknown role.
func CanPerform(role, capability string) bool {
	if role == "" || capability == "" {
		return false
	}
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, permission := range permissions {
		if permission == "*" || permission == capability {
			return true
		}
	}
	if idx := strings.Index(capability, ":"); idx > 0 {
		parent := capability[:idx]
		for _, permission := range permissions {
			if permission == parent {
				return true
			}
		}
	}
	return false
}

// CanAccessRoute checks the static route table. Unknown routes are
// denied (admin keeps the universal wildcard).
func CanAccessRoute(role, route string) bool {
	if role == "" {
		return false
	}
	allowedRoles, ok := routeRoles[route]
	if !ok {
		return role == constants.ROLE_ADMIN
	}
	for _, allowed := range allowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
