package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the order lifecycle. The call flow only ever drives
// PENDING -> CONFIRMED and * -> CALL_BACK_REQUESTED; the remaining
// states belong to kitchen and fulfillment workflows.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusUnpaid            Status = "UNPAID"
	StatusPaid              Status = "PAID"
	StatusConfirmed         Status = "CONFIRMED"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusReady             Status = "READY"
	StatusOutForDelivery    Status = "OUT_FOR_DELIVERY"
	StatusCompleted         Status = "COMPLETED"
	StatusCancelled         Status = "CANCELLED"
	StatusFailed            Status = "FAILED"
	StatusCallBackRequested Status = "CALL_BACK_REQUESTED"
)

// OrderType is how the order reaches the customer.
type OrderType string

const (
	OrderTypeDelivery     OrderType = "delivery"
	OrderTypePickup       OrderType = "pickup"
	OrderTypeTableBooking OrderType = "table_booking"
)

// ValidOrderType reports whether s is one of the three accepted
// fulfillment types.
func ValidOrderType(s string) bool {
	switch OrderType(s) {
	case OrderTypeDelivery, OrderTypePickup, OrderTypeTableBooking:
		return true
	}
	return false
}

type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	PhoneNumber string    `bun:"phone_number,notnull,unique"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID           int64   `bun:"id,pk,autoincrement"`
	RestaurantID int64   `bun:"restaurant_id,notnull"`
	CategoryID   int64   `bun:"category_id,nullzero"`
	Name         string  `bun:"name,notnull"`
	Price        float64 `bun:"price,notnull"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id"`
}

// Order is the aggregate root of one phone call. CallSID is the call
// session identifier; the unique index on it is what makes
// get-or-create race-safe.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64  `bun:"id,pk,autoincrement"`
	CallSID      string `bun:"call_sid,notnull,unique"`
	RestaurantID int64  `bun:"restaurant_id,notnull"`
	Status       Status `bun:"status,notnull,default:'PENDING'"`

	OrderType     string `bun:"order_type,nullzero"`
	Address       string `bun:"address,nullzero"`
	PickupBranch  string `bun:"pickup_branch,nullzero"`
	PickupTime    string `bun:"pickup_time,nullzero"`
	BookingPeople int    `bun:"booking_people,nullzero"`
	BookingTime   string `bun:"booking_time,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// OrderItem holds one menu item within one order. At most one row per
// (order, menu item) pair; repeated mentions update in place.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID            int64  `bun:"id,pk,autoincrement"`
	OrderID       int64  `bun:"order_id,notnull,unique:order_menu_item"`
	MenuItemID    int64  `bun:"menu_item_id,notnull,unique:order_menu_item"`
	Quantity      int    `bun:"quantity,notnull"`
	Modifications string `bun:"modifications,nullzero"` // JSON list of strings

	MenuItem *MenuItem `bun:"rel:belongs-to,join:menu_item_id=id"`
}

// Event kinds on the conversation log.
const (
	EventKindUser  = "user"
	EventKindAgent = "agent"
	EventKindTool  = "tool"
)

// Event outcomes. Caller and agent turns carry no outcome.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ConversationEvent is one line of an order's append-only audit log:
// a caller turn, an agent reply, or a tool invocation outcome. Events
// are never updated or deleted.
type ConversationEvent struct {
	bun.BaseModel `bun:"table:conversation_events"`

	ID        int64     `bun:"id,pk,autoincrement"`
	OrderID   int64     `bun:"order_id,notnull"`
	Kind      string    `bun:"kind,notnull"`
	Tool      string    `bun:"tool,nullzero"`
	Outcome   string    `bun:"outcome,nullzero"`
	Payload   string    `bun:"payload,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Setting is a runtime-tunable admin value looked up by key.
type Setting struct {
	bun.BaseModel `bun:"table:settings"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Key   string `bun:"key,notnull,unique"`
	Value string `bun:"value,notnull"`
}
