package driver

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"voicechef/agent/contract"
	"voicechef/agent/session"
	"voicechef/agent/store"
)

// turnState is threaded through the turn graph.
type turnState struct {
	in         TurnInput
	transcript string

	restaurant *store.Restaurant
	order      *store.Order
	sess       *session.Session
	chef       contract.Chef

	conversation []string
	reply        string
}

func (d *Driver) compileHandleTurnGraph() (compose.Runnable[TurnInput, TurnOutput], error) {
	ctx := context.Background()
	graph := compose.NewGraph[TurnInput, TurnOutput]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in TurnInput) (*turnState, error) {
			return validateTurn(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("open_order",
		compose.InvokableLambda(d.openOrder),
	); err != nil {
		return nil, fmt.Errorf("add node open_order: %w", err)
	}

	if err := graph.AddLambdaNode("bind_chef",
		compose.InvokableLambda(d.bindChef),
	); err != nil {
		return nil, fmt.Errorf("add node bind_chef: %w", err)
	}

	if err := graph.AddLambdaNode("run_chef",
		compose.InvokableLambda(d.runChef),
	); err != nil {
		return nil, fmt.Errorf("add node run_chef: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_turn",
		compose.InvokableLambda(d.finalizeTurn),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_turn: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "open_order"},
		{"open_order", "bind_chef"},
		{"bind_chef", "run_chef"},
		{"run_chef", "finalize_turn"},
		{"finalize_turn", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("driver.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

// openOrder resolves the restaurant, get-or-creates the call's order
// and logs the caller's line. An unknown restaurant phone is a hard
// error; the webhook turns it into a polite hangup.
func (d *Driver) openOrder(ctx context.Context, st *turnState) (*turnState, error) {
	restaurant, err := d.menu.RestaurantByPhone(ctx, st.in.RestaurantPhone)
	if err != nil {
		return nil, fmt.Errorf("resolve restaurant %s: %w", st.in.RestaurantPhone, err)
	}
	st.restaurant = restaurant

	order, err := d.orders.GetOrCreate(ctx, st.in.CallSID, restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("open order for call %s: %w", st.in.CallSID, err)
	}
	st.order = order

	events, err := d.orders.Events(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load conversation for order %d: %w", order.ID, err)
	}
	st.conversation = conversationLines(events)

	if st.transcript != "" {
		ev := &store.ConversationEvent{
			OrderID: order.ID,
			Kind:    store.EventKindUser,
			Payload: st.transcript,
		}
		if err := d.orders.AppendEvent(ctx, ev); err != nil {
			log.Warn().Err(err).Int64("order_id", order.ID).Msg("caller event dropped")
		}
	}
	return st, nil
}

func (d *Driver) bindChef(ctx context.Context, st *turnState) (*turnState, error) {
	sess, err := d.sessions.GetOrCreate("CUSTOMER", st.in.CallSID, st.in.RestaurantPhone)
	if err != nil {
		return nil, fmt.Errorf("bind session for call %s: %w", st.in.CallSID, err)
	}
	st.sess = sess
	chef, err := d.chefs.Get(ctx, st.in.RestaurantPhone)
	if err != nil {
		return nil, fmt.Errorf("get chef for %s: %w", st.in.RestaurantPhone, err)
	}
	st.chef = chef
	return st, nil
}

// runChef drives the request/tool-result loop for one turn. The chef
// either answers with a spoken line or asks for tools; tool results go
// back to the chef until it speaks or the round budget runs out.
func (d *Driver) runChef(ctx context.Context, st *turnState) (*turnState, error) {
	if st.transcript == "" {
		st.reply = repromptLine
		return st, nil
	}

	req := contract.ChefRequest{
		SessionID:       st.in.CallSID,
		RestaurantPhone: st.in.RestaurantPhone,
		Transcript:      st.transcript,
		Conversation:    st.conversation,
	}

	for round := 0; round < d.maxToolRounds; round++ {
		resp, err := st.chef.Run(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("chef run: %w", err)
		}
		if len(resp.ToolRequests) == 0 {
			st.reply = resp.Message
			return st, nil
		}

		results, err := d.gateway.Execute(ctx, st.sess, resp.ToolRequests)
		if err != nil {
			return nil, fmt.Errorf("execute tools: %w", err)
		}
		req.ToolResults = append(req.ToolResults, results...)
	}

	log.Warn().
		Str("call_sid", st.in.CallSID).
		Int("rounds", d.maxToolRounds).
		Msg("tool round budget exhausted")
	st.reply = overloadLine
	return st, nil
}

// finalizeTurn logs the agent's line and decides whether to hang up.
// The status is re-read because a confirm_order in this turn moves it.
func (d *Driver) finalizeTurn(ctx context.Context, st *turnState) (TurnOutput, error) {
	if st.reply != "" && st.transcript != "" {
		ev := &store.ConversationEvent{
			OrderID: st.order.ID,
			Kind:    store.EventKindAgent,
			Payload: st.reply,
		}
		if err := d.orders.AppendEvent(ctx, ev); err != nil {
			log.Warn().Err(err).Int64("order_id", st.order.ID).Msg("agent event dropped")
		}
	}

	current, err := d.orders.ByCallSID(ctx, st.in.CallSID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("reload order for call %s: %w", st.in.CallSID, err)
	}

	out := TurnOutput{
		Reply:   st.reply,
		EndCall: current.Status == store.StatusConfirmed,
	}
	if out.EndCall {
		d.sessions.Delete(st.in.CallSID)
	}
	return out, nil
}
