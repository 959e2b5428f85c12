package enum

// ── Group A: State machines (persisted with every order/table) ──

const (
	OrderStatusOrdering  = "ORDERING"
	OrderStatusSubmitted = "SUBMITTED"
	OrderStatusCheckedIn = "CHECKED_IN"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// Manual table status, set by staff and independent of order status.
const (
	TableStatusIdle      = "IDLE"
	TableStatusOrdering  = "ORDERING"
	TableStatusCheckedIn = "CHECKED_IN"
	TableStatusPaid      = "PAID"
)

// ── Group B: Derived labels (never persisted) ──

// Board status shown on the staff table grid.
const (
	BoardStatusIdle           = "idle"
	BoardStatusOrdering       = "ordering"
	BoardStatusPreparing      = "preparing"
	BoardStatusServed         = "served"
	BoardStatusPaid           = "paid"
	BoardStatusPaidIncomplete = "paid_incomplete"
)

// Location failures reported by a client instead of a position.
const (
	LocationPermissionDenied = "permission_denied"
	LocationTimeout          = "timeout"
	LocationUnavailable      = "unavailable"
)

// ── Group C: Persisted collection names ──

const (
	CollectionTables = "tables"
	CollectionOrders = "orders"
	CollectionDishes = "dishes"
	CollectionConfig = "config"
)
