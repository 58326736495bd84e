package contract

import (
	"context"

	"voicechef/agent/session"
	"voicechef/agent/store"
)

// MenuReader is the read-only catalog surface: which restaurant a
// phone number belongs to and what it serves.
type MenuReader interface {
	RestaurantByPhone(ctx context.Context, phoneNumber string) (*store.Restaurant, error)
	ItemsByRestaurant(ctx context.Context, restaurantID int64) ([]store.MenuItem, error)
}

// OrderWriter is the mutable order surface the tool operations and the
// conversation driver work against.
type OrderWriter interface {
	GetOrCreate(ctx context.Context, callSID string, restaurantID int64) (*store.Order, error)
	ByCallSID(ctx context.Context, callSID string) (*store.Order, error)
	ReconcileItem(ctx context.Context, orderID, menuItemID int64, quantity int, modifications []string) error
	SetOrderType(ctx context.Context, orderID int64, orderType store.OrderType) error
	SetAddress(ctx context.Context, orderID int64, address string) error
	SetTableBooking(ctx context.Context, orderID int64, people int, bookingTime string) error
	SetPickUpBranch(ctx context.Context, orderID int64, branch, pickupTime string) error
	SetStatus(ctx context.Context, orderID int64, status store.Status) error
	AppendEvent(ctx context.Context, ev *store.ConversationEvent) error
	Events(ctx context.Context, orderID int64) ([]store.ConversationEvent, error)
}

// Chef is a restaurant-scoped conversational agent. Its menu knowledge
// is frozen when the instance is built.
type Chef interface {
	Run(ctx context.Context, req ChefRequest) (ChefResponse, error)
}

// ChefProvider hands out the chef bound to a restaurant phone number.
type ChefProvider interface {
	Get(ctx context.Context, restaurantPhone string) (Chef, error)
}

// ToolGateway executes tool requests sequentially against the order
// owned by the session's call. It returns one Result per Request and
// an error only for infrastructure faults outside any single tool.
type ToolGateway interface {
	Execute(ctx context.Context, sess *session.Session, reqs []Request) ([]Result, error)
}
