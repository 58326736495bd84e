package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := InitSchema(context.Background(), db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedRestaurant(t *testing.T, db *bun.DB) *Restaurant {
	t.Helper()

	r := &Restaurant{Name: "Spice Route", PhoneNumber: "+15550001111"}
	if _, err := db.NewInsert().Model(r).Exec(context.Background()); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return r
}

func seedMenuItem(t *testing.T, db *bun.DB, restaurantID int64, category, name string, price float64) *MenuItem {
	t.Helper()
	ctx := context.Background()

	c := &Category{Name: category}
	if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	m := &MenuItem{RestaurantID: restaurantID, CategoryID: c.ID, Name: name, Price: price}
	if _, err := db.NewInsert().Model(m).Exec(ctx); err != nil {
		t.Fatalf("seed menu item: %v", err)
	}
	return m
}

func TestGetOrCreateIsIdempotentPerCall(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	orders := NewOrderStore(db)

	first, err := orders.GetOrCreate(ctx, "CA100", rest.ID)
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	second, err := orders.GetOrCreate(ctx, "CA100", rest.ID)
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one order per call, got ids %d and %d", first.ID, second.ID)
	}
	if first.Status != StatusPending {
		t.Fatalf("new order status = %s, want %s", first.Status, StatusPending)
	}

	count, err := db.NewSelect().Model((*Order)(nil)).Where("call_sid = ?", "CA100").Count(ctx)
	if err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("order rows for call = %d, want 1", count)
	}
}

func TestGetOrCreateSingleRowUnderConcurrentFirstTurns(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	orders := NewOrderStore(db)

	const callers = 4
	ids := make([]int64, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			order, err := orders.GetOrCreate(ctx, "CA150", rest.ID)
			if err != nil {
				t.Errorf("concurrent get-or-create %d: %v", i, err)
				return
			}
			ids[i] = order.ID
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got order %d, caller 0 got %d", i, ids[i], ids[0])
		}
	}
	count, err := db.NewSelect().Model((*Order)(nil)).Where("call_sid = ?", "CA150").Count(ctx)
	if err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("order rows for call = %d, want 1", count)
	}
}

func TestReconcileItemUpserts(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	biryani := seedMenuItem(t, db, rest.ID, "Mains", "Chicken Biryani", 9.99)
	orders := NewOrderStore(db)

	order, err := orders.GetOrCreate(ctx, "CA200", rest.ID)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}

	if err := orders.ReconcileItem(ctx, order.ID, biryani.ID, 1, nil); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := orders.ReconcileItem(ctx, order.ID, biryani.ID, 3, []string{"extra spicy"}); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	count, err := orders.ItemCount(ctx, order.ID)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows for (order, item) = %d, want 1", count)
	}

	reloaded, err := orders.ByCallSID(ctx, "CA200")
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("loaded items = %d, want 1", len(reloaded.Items))
	}
	item := reloaded.Items[0]
	if item.Quantity != 3 {
		t.Fatalf("quantity = %d, want snapshot value 3", item.Quantity)
	}
	if item.Modifications != `["extra spicy"]` {
		t.Fatalf("modifications = %q", item.Modifications)
	}
}

func TestFulfillmentSetters(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	orders := NewOrderStore(db)

	order, err := orders.GetOrCreate(ctx, "CA300", rest.ID)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}

	if err := orders.SetOrderType(ctx, order.ID, OrderTypeDelivery); err != nil {
		t.Fatalf("set order type: %v", err)
	}
	if err := orders.SetAddress(ctx, order.ID, "12 Oak St"); err != nil {
		t.Fatalf("set address: %v", err)
	}

	reloaded, err := orders.ByCallSID(ctx, "CA300")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.OrderType != string(OrderTypeDelivery) {
		t.Fatalf("order type = %q, want delivery", reloaded.OrderType)
	}
	if reloaded.Address != "12 Oak St" {
		t.Fatalf("address = %q", reloaded.Address)
	}

	if err := orders.SetTableBooking(ctx, order.ID, 4, "7 pm tomorrow"); err != nil {
		t.Fatalf("set table booking: %v", err)
	}
	reloaded, err = orders.ByCallSID(ctx, "CA300")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.OrderType != string(OrderTypeTableBooking) {
		t.Fatalf("booking must force order type, got %q", reloaded.OrderType)
	}
	if reloaded.BookingPeople != 4 || reloaded.BookingTime != "7 pm tomorrow" {
		t.Fatalf("booking fields = (%d, %q)", reloaded.BookingPeople, reloaded.BookingTime)
	}

	if err := orders.SetStatus(ctx, order.ID, StatusConfirmed); err != nil {
		t.Fatalf("set status: %v", err)
	}
	reloaded, err = orders.ByCallSID(ctx, "CA300")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", reloaded.Status)
	}
}

func TestSettersRejectUnknownOrder(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	orders := NewOrderStore(db)

	err := orders.SetAddress(context.Background(), 9999, "nowhere")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestConversationLogOnlyGrows(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	orders := NewOrderStore(db)

	order, err := orders.GetOrCreate(ctx, "CA400", rest.ID)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}

	appended := []*ConversationEvent{
		{OrderID: order.ID, Kind: EventKindUser, Payload: "two biryanis please"},
		{OrderID: order.ID, Kind: EventKindTool, Tool: "set_or_modify_items", Outcome: OutcomeSuccess},
		{OrderID: order.ID, Kind: EventKindAgent, Payload: "Two biryanis, anything else?"},
	}
	lastLen := 0
	for _, ev := range appended {
		if err := orders.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("append event: %v", err)
		}
		events, err := orders.Events(ctx, order.ID)
		if err != nil {
			t.Fatalf("read events: %v", err)
		}
		if len(events) <= lastLen {
			t.Fatalf("log shrank: %d -> %d", lastLen, len(events))
		}
		lastLen = len(events)
	}

	events, err := orders.Events(ctx, order.ID)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if events[1].Kind != EventKindTool || events[1].Tool != "set_or_modify_items" {
		t.Fatalf("event order not preserved: %+v", events[1])
	}
}

func TestMenuAndSettingLookups(t *testing.T) {
	t.Parallel()

	db := setupDB(t)
	ctx := context.Background()
	rest := seedRestaurant(t, db)
	seedMenuItem(t, db, rest.ID, "Mains", "Chicken Biryani", 9.99)
	seedMenuItem(t, db, rest.ID, "Drinks", "Cola", 1.50)

	menus := NewMenuStore(db)
	found, err := menus.RestaurantByPhone(ctx, rest.PhoneNumber)
	if err != nil {
		t.Fatalf("restaurant by phone: %v", err)
	}
	if found.ID != rest.ID {
		t.Fatalf("restaurant id = %d, want %d", found.ID, rest.ID)
	}

	if _, err := menus.RestaurantByPhone(ctx, "+10000000000"); !errors.Is(err, ErrRestaurantNotFound) {
		t.Fatalf("expected ErrRestaurantNotFound, got %v", err)
	}

	items, err := menus.ItemsByRestaurant(ctx, rest.ID)
	if err != nil {
		t.Fatalf("menu items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("menu size = %d, want 2", len(items))
	}
	if items[0].Name != "Chicken Biryani" {
		t.Fatalf("items not name-ordered: %s first", items[0].Name)
	}
	if items[1].Category == nil || items[1].Category.Name != "Drinks" {
		t.Fatalf("category relation not loaded: %+v", items[1].Category)
	}

	settings := NewSettingStore(db)
	if _, err := settings.Get(ctx, "GREETING"); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
	if _, err := db.NewInsert().Model(&Setting{Key: "GREETING", Value: "Hi! What would you like to order today?"}).Exec(ctx); err != nil {
		t.Fatalf("seed setting: %v", err)
	}
	greeting, err := settings.Get(ctx, "GREETING")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if greeting != "Hi! What would you like to order today?" {
		t.Fatalf("greeting = %q", greeting)
	}
}
