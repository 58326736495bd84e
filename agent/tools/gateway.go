package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"voicechef/agent/catalog"
	"voicechef/agent/contract"
	"voicechef/agent/session"
	"voicechef/agent/store"
)

// Gateway executes tool requests against the order owned by the
// session's call. Requests run sequentially in the order the agent
// asked for them, each one producing exactly one Result and exactly
// one audit event on the order's conversation log.
type Gateway struct {
	orders   contract.OrderWriter
	menu     contract.MenuReader
	resolver *catalog.Resolver
}

func NewGateway(orders contract.OrderWriter, menu contract.MenuReader, resolver *catalog.Resolver) *Gateway {
	return &Gateway{orders: orders, menu: menu, resolver: resolver}
}

var _ contract.ToolGateway = (*Gateway)(nil)

// Execute runs the batch. An error return means the order itself could
// not be resolved; individual tool failures come back as error
// Results instead so the agent can rephrase and retry.
func (g *Gateway) Execute(ctx context.Context, sess *session.Session, reqs []contract.Request) ([]contract.Result, error) {
	restaurant, err := g.menu.RestaurantByPhone(ctx, sess.RestaurantPhone)
	if err != nil {
		return nil, fmt.Errorf("resolve restaurant %s: %w", sess.RestaurantPhone, err)
	}
	order, err := g.orders.GetOrCreate(ctx, sess.ID, restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve order for call %s: %w", sess.ID, err)
	}

	results := make([]contract.Result, 0, len(reqs))
	for _, req := range reqs {
		res := g.dispatch(ctx, order, restaurant, req)
		g.audit(ctx, order.ID, req, res)
		log.Debug().
			Str("call_sid", sess.ID).
			Str("tool", req.Tool).
			Str("status", res.Status).
			Msg("tool executed")
		results = append(results, res)
	}
	return results, nil
}

// dispatch routes one request to its operation. A panic inside an
// operation is downgraded to an error Result so one bad argument
// object cannot take down the call.
func (g *Gateway) dispatch(ctx context.Context, order *store.Order, restaurant *store.Restaurant, req contract.Request) (res contract.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", req.Tool).Any("panic", r).Msg("tool panicked")
			res = contract.Error(req.Tool, "something went wrong handling that request")
		}
	}()

	switch req.Tool {
	case ToolGetMenu:
		return g.getMenu(ctx, restaurant)
	case ToolSetOrModifyItems:
		return g.setOrModifyItems(ctx, order, restaurant, req.Args)
	case ToolSetOrderType:
		return g.setOrderType(ctx, order, req.Args)
	case ToolSetAddress:
		return g.setAddress(ctx, order, req.Args)
	case ToolSetTableBooking:
		return g.setTableBooking(ctx, order, req.Args)
	case ToolSetPickUpBranch:
		return g.setPickUpBranch(ctx, order, req.Args)
	case ToolConfirmOrder:
		return g.confirmOrder(ctx, order)
	case ToolCallBack:
		return g.callBack(ctx, order)
	case ToolTransferToHuman:
		return g.transferToHuman()
	default:
		return contract.Error(req.Tool, fmt.Sprintf("unknown tool %q", req.Tool))
	}
}

// audit appends the tool outcome to the order's conversation log. The
// log is best effort; a failed write must not fail the tool call that
// already mutated the order.
func (g *Gateway) audit(ctx context.Context, orderID int64, req contract.Request, res contract.Result) {
	payload, err := json.Marshal(map[string]any{
		"args":    req.Args,
		"message": res.Message,
	})
	if err != nil {
		payload = []byte(fmt.Sprintf("%q", res.Message))
	}
	ev := &store.ConversationEvent{
		OrderID: orderID,
		Kind:    store.EventKindTool,
		Tool:    req.Tool,
		Outcome: res.Status,
		Payload: string(payload),
	}
	if err := g.orders.AppendEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Int64("order_id", orderID).Str("tool", req.Tool).Msg("audit event dropped")
	}
}
