package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voicechef/agent/catalog"
	"voicechef/agent/contract"
	"voicechef/agent/store"
)

type setItemsArgs struct {
	Items []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Modifications []struct {
		ItemName string `json:"item_name"`
		Details  string `json:"details"`
	} `json:"modifications"`
}

type setOrderTypeArgs struct {
	OrderType string `json:"order_type"`
}

type setAddressArgs struct {
	Address string `json:"address"`
}

type setTableBookingArgs struct {
	NoOfPeople int    `json:"no_of_people"`
	Time       string `json:"time"`
}

type setPickUpBranchArgs struct {
	Branch string `json:"branch"`
	Time   string `json:"time"`
}

// decodeArgs maps the loosely-typed argument object the agent sent
// onto a concrete struct by a JSON round trip.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: encode tool args: %v", contract.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode tool args: %v", contract.ErrValidation, err)
	}
	return nil
}

func (g *Gateway) getMenu(ctx context.Context, restaurant *store.Restaurant) contract.Result {
	items, err := g.menu.ItemsByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return contract.Error(ToolGetMenu, "could not load the menu right now")
	}
	if len(items) == 0 {
		return contract.Error(ToolGetMenu, "this restaurant has no menu items configured")
	}
	return contract.Success(ToolGetMenu, catalog.FormatMenu(restaurant.Name, items))
}

// setOrModifyItems reconciles the order against the full item list the
// agent sent. Items already on the order are updated in place; new
// ones are inserted. Any invalid or unknown item fails the call with
// an error result; rows written before the failing item stand, and the
// agent re-sends the corrected full list on the next attempt.
func (g *Gateway) setOrModifyItems(ctx context.Context, order *store.Order, restaurant *store.Restaurant, args map[string]any) contract.Result {
	var in setItemsArgs
	if err := decodeArgs(args, &in); err != nil {
		return contract.Error(ToolSetOrModifyItems, "items must be a list of {name, quantity} objects")
	}
	if len(in.Items) == 0 {
		return contract.Error(ToolSetOrModifyItems, "no items given; send the full current list of items")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Name) == "" {
			return contract.Error(ToolSetOrModifyItems, "every item needs a name")
		}
		if item.Quantity <= 0 {
			return contract.Error(ToolSetOrModifyItems,
				fmt.Sprintf("quantity for %q must be a positive number", item.Name))
		}
	}

	menu, err := g.menu.ItemsByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return contract.Error(ToolSetOrModifyItems, "could not load the menu right now")
	}

	modsByItem := make(map[string][]string)
	for _, m := range in.Modifications {
		resolved, ok := g.resolver.Resolve(m.ItemName, menu)
		if !ok {
			continue
		}
		modsByItem[resolved.Name] = append(modsByItem[resolved.Name], m.Details)
	}

	updated := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		resolved, ok := g.resolver.Resolve(item.Name, menu)
		if !ok {
			return contract.Error(ToolSetOrModifyItems,
				fmt.Sprintf("%q is not on the menu", item.Name))
		}
		if err := g.orders.ReconcileItem(ctx, order.ID, resolved.ID, item.Quantity, modsByItem[resolved.Name]); err != nil {
			return contract.Error(ToolSetOrModifyItems, "could not save the order items")
		}
		updated = append(updated, fmt.Sprintf("%dx %s", item.Quantity, resolved.Name))
	}

	return contract.Success(ToolSetOrModifyItems,
		fmt.Sprintf("order updated: %s", strings.Join(updated, ", ")))
}

func (g *Gateway) setOrderType(ctx context.Context, order *store.Order, args map[string]any) contract.Result {
	var in setOrderTypeArgs
	if err := decodeArgs(args, &in); err != nil || !store.ValidOrderType(in.OrderType) {
		return contract.Error(ToolSetOrderType, "order_type must be one of delivery, pickup or table_booking")
	}
	if err := g.orders.SetOrderType(ctx, order.ID, store.OrderType(in.OrderType)); err != nil {
		return contract.Error(ToolSetOrderType, "could not save the order type")
	}
	return contract.Success(ToolSetOrderType, fmt.Sprintf("order type set to %s", in.OrderType))
}

func (g *Gateway) setAddress(ctx context.Context, order *store.Order, args map[string]any) contract.Result {
	var in setAddressArgs
	if err := decodeArgs(args, &in); err != nil || strings.TrimSpace(in.Address) == "" {
		return contract.Error(ToolSetAddress, "address must be a non-empty string")
	}
	if err := g.orders.SetAddress(ctx, order.ID, strings.TrimSpace(in.Address)); err != nil {
		return contract.Error(ToolSetAddress, "could not save the address")
	}
	return contract.Success(ToolSetAddress, "delivery address saved")
}

func (g *Gateway) setTableBooking(ctx context.Context, order *store.Order, args map[string]any) contract.Result {
	var in setTableBookingArgs
	if err := decodeArgs(args, &in); err != nil || in.NoOfPeople <= 0 || strings.TrimSpace(in.Time) == "" {
		return contract.Error(ToolSetTableBooking, "table booking needs a party size and a time")
	}
	if err := g.orders.SetTableBooking(ctx, order.ID, in.NoOfPeople, strings.TrimSpace(in.Time)); err != nil {
		return contract.Error(ToolSetTableBooking, "could not save the table booking")
	}
	return contract.Success(ToolSetTableBooking,
		fmt.Sprintf("table booked for %d at %s", in.NoOfPeople, strings.TrimSpace(in.Time)))
}

func (g *Gateway) setPickUpBranch(ctx context.Context, order *store.Order, args map[string]any) contract.Result {
	var in setPickUpBranchArgs
	if err := decodeArgs(args, &in); err != nil || strings.TrimSpace(in.Branch) == "" || strings.TrimSpace(in.Time) == "" {
		return contract.Error(ToolSetPickUpBranch, "pickup needs a branch and a time")
	}
	if err := g.orders.SetPickUpBranch(ctx, order.ID, strings.TrimSpace(in.Branch), strings.TrimSpace(in.Time)); err != nil {
		return contract.Error(ToolSetPickUpBranch, "could not save the pickup details")
	}
	return contract.Success(ToolSetPickUpBranch,
		fmt.Sprintf("pickup at %s, %s", strings.TrimSpace(in.Branch), strings.TrimSpace(in.Time)))
}

// confirmOrder re-reads the order so a set_or_modify_items call
// earlier in the same batch is visible to the precondition check.
func (g *Gateway) confirmOrder(ctx context.Context, order *store.Order) contract.Result {
	current, err := g.orders.ByCallSID(ctx, order.CallSID)
	if err != nil {
		return contract.Error(ToolConfirmOrder, "could not load the order")
	}
	if len(current.Items) == 0 {
		return contract.Error(ToolConfirmOrder, "the order has no items yet; add items before confirming")
	}
	if current.OrderType == "" {
		return contract.Error(ToolConfirmOrder, "the order type is not set yet; ask for delivery, pickup or table booking first")
	}
	if err := g.orders.SetStatus(ctx, order.ID, store.StatusConfirmed); err != nil {
		return contract.Error(ToolConfirmOrder, "could not confirm the order")
	}
	return contract.Success(ToolConfirmOrder, "order confirmed")
}

func (g *Gateway) callBack(ctx context.Context, order *store.Order) contract.Result {
	if err := g.orders.SetStatus(ctx, order.ID, store.StatusCallBackRequested); err != nil {
		return contract.Error(ToolCallBack, "could not mark the order for a call back")
	}
	return contract.Success(ToolCallBack, "a staff member will call back shortly")
}

// transferToHuman has no order mutation of its own; the audit line the
// gateway writes is the signal staff act on.
func (g *Gateway) transferToHuman() contract.Result {
	return contract.Success(ToolTransferToHuman, "transferring to a human now")
}
