package constants

// Staff roles
const ROLE_ADMIN = "admin"
const ROLE_MANAGER = "manager"
const ROLE_SERVER = "server"
const ROLE_COUNTER = "counter"
const ROLE_KITCHEN = "kitchen"

// Order types
const ORDER_TYPE_DINE_IN = "dine_in"
const ORDER_TYPE_TAKEAWAY = "takeaway"
const ORDER_TYPE_DELIVERY = "delivery"

// Order and order item status
const ORDER_STATUS_PENDING = "pending"
const ORDER_STATUS_PREPARING = "preparing"
const ORDER_STATUS_READY = "ready"
const ORDER_STATUS_SERVED = "served"
const ORDER_STATUS_COMPLETED = "completed"
const ORDER_STATUS_CANCELLED = "cancelled"

// Table status
const TABLE_STATUS_AVAILABLE = "available"
const TABLE_STATUS_OCCUPIED = "occupied"
const TABLE_STATUS_RESERVED = "reserved"
const TABLE_STATUS_CLEANING = "cleaning"

// Payment status
const PAYMENT_STATUS_PENDING = "pending"
const PAYMENT_STATUS_PAID = "paid"
const PAYMENT_STATUS_REFUNDED = "refunded"
const PAYMENT_STATUS_CANCELLED = "cancelled"

// Payment methods
const PAYMENT_METHOD_CASH = "cash"
const PAYMENT_METHOD_CARD = "card"
const PAYMENT_METHOD_DIGITAL_WALLET = "digital_wallet"

// Order event types for the in-process feed
const EVENT_ORDER_CREATED = "order_created"
const EVENT_ITEM_ADDED = "item_added"
const EVENT_ITEM_STATUS_CHANGED = "item_status_changed"
const EVENT_ORDER_STATUS_CHANGED = "order_status_changed"
const EVENT_PAYMENT_SETTLED = "payment_settled"
const EVENT_ORDER_COMPLETED = "order_completed"
const EVENT_ORDER_CANCELLED = "order_cancelled"

// Error responses
const ORDER_NOT_FOUND = "order not found"
const TABLE_NOT_FOUND = "table not found"
const PAYMENT_NOT_FOUND = "payment not found"
const PRODUCT_NOT_AVAILABLE = "product not available"
const STAFF_NOT_FOUND = "staff not found"
const TABLE_NOT_AVAILABLE = "table is not available"
const ORDER_ALREADY_PAID = "order already has a paid payment covering its total"
const ORDER_NOT_PAID = "order total is not covered by paid payments"
