package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrSettingNotFound    = errors.New("setting not found")
)

// OrderStore owns the persistent record of one call's order and its
// append-only conversation log.
type OrderStore struct {
	db *bun.DB
}

func NewOrderStore(db *bun.DB) *OrderStore {
	return &OrderStore{db: db}
}

// GetOrCreate returns the order for callSID, creating it if this is
// the call's first turn. Concurrent first turns for the same call are
// resolved by the unique index on call_sid: the losing insert is a
// no-op and both callers read back the same row.
func (s *OrderStore) GetOrCreate(ctx context.Context, callSID string, restaurantID int64) (*Order, error) {
	o := &Order{
		CallSID:      callSID,
		RestaurantID: restaurantID,
		Status:       StatusPending,
	}
	if _, err := s.db.NewInsert().
		Model(o).
		On("CONFLICT (call_sid) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return s.ByCallSID(ctx, callSID)
}

// ByCallSID loads the order (with items) for a call session.
func (s *OrderStore) ByCallSID(ctx context.Context, callSID string) (*Order, error) {
	o := new(Order)
	err := s.db.NewSelect().
		Model(o).
		Relation("Items").
		Relation("Items.MenuItem").
		Where("call_sid = ?", callSID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: call_sid=%s", ErrOrderNotFound, callSID)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// ReconcileItem upserts one (order, menu item) row to the given
// snapshot quantity and modifications. The read and the write run in
// one transaction so a concurrent reconcile of the same item cannot
// interleave between them.
func (s *OrderStore) ReconcileItem(ctx context.Context, orderID, menuItemID int64, quantity int, modifications []string) error {
	mods := ""
	if len(modifications) > 0 {
		raw, err := json.Marshal(modifications)
		if err != nil {
			return fmt.Errorf("marshal modifications: %w", err)
		}
		mods = string(raw)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(OrderItem)
		err := tx.NewSelect().
			Model(existing).
			Where("order_id = ? AND menu_item_id = ?", orderID, menuItemID).
			Scan(ctx)
		switch {
		case err == nil:
			existing.Quantity = quantity
			existing.Modifications = mods
			if _, err := tx.NewUpdate().
				Model(existing).
				Column("quantity", "modifications").
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("update order item: %w", err)
			}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			item := &OrderItem{
				OrderID:       orderID,
				MenuItemID:    menuItemID,
				Quantity:      quantity,
				Modifications: mods,
			}
			if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("select order item: %w", err)
		}
	})
}

func (s *OrderStore) SetOrderType(ctx context.Context, orderID int64, orderType OrderType) error {
	return s.updateColumns(ctx, orderID, map[string]any{"order_type": string(orderType)})
}

func (s *OrderStore) SetAddress(ctx context.Context, orderID int64, address string) error {
	return s.updateColumns(ctx, orderID, map[string]any{"address": address})
}

// SetTableBooking records party size and time and forces the
// fulfillment type, since a booking implies it.
func (s *OrderStore) SetTableBooking(ctx context.Context, orderID int64, people int, bookingTime string) error {
	return s.updateColumns(ctx, orderID, map[string]any{
		"order_type":     string(OrderTypeTableBooking),
		"booking_people": people,
		"booking_time":   bookingTime,
	})
}

// SetPickUpBranch records branch and time and forces the fulfillment
// type, since a pickup branch implies it.
func (s *OrderStore) SetPickUpBranch(ctx context.Context, orderID int64, branch, pickupTime string) error {
	return s.updateColumns(ctx, orderID, map[string]any{
		"order_type":    string(OrderTypePickup),
		"pickup_branch": branch,
		"pickup_time":   pickupTime,
	})
}

func (s *OrderStore) SetStatus(ctx context.Context, orderID int64, status Status) error {
	return s.updateColumns(ctx, orderID, map[string]any{"status": string(status)})
}

func (s *OrderStore) updateColumns(ctx context.Context, orderID int64, values map[string]any) error {
	q := s.db.NewUpdate().Model((*Order)(nil)).Where("id = ?", orderID)
	for col, val := range values {
		q = q.Set("? = ?", bun.Ident(col), val)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
	}
	return nil
}

// AppendEvent appends one line to the order's conversation log.
func (s *OrderStore) AppendEvent(ctx context.Context, ev *ConversationEvent) error {
	if ev == nil || ev.OrderID == 0 {
		return fmt.Errorf("%w: event needs an order id", ErrOrderNotFound)
	}
	if _, err := s.db.NewInsert().Model(ev).Exec(ctx); err != nil {
		return fmt.Errorf("append conversation event: %w", err)
	}
	return nil
}

// Events returns the order's conversation log in append order.
func (s *OrderStore) Events(ctx context.Context, orderID int64) ([]ConversationEvent, error) {
	var events []ConversationEvent
	err := s.db.NewSelect().
		Model(&events).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select conversation events: %w", err)
	}
	return events, nil
}

// ItemCount returns how many distinct menu items the order holds.
func (s *OrderStore) ItemCount(ctx context.Context, orderID int64) (int, error) {
	count, err := s.db.NewSelect().
		Model((*OrderItem)(nil)).
		Where("order_id = ?", orderID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count order items: %w", err)
	}
	return count, nil
}
