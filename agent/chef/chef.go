// Package chef hosts the restaurant-scoped ordering agent. One chef is
// built per restaurant with that restaurant's menu frozen into its
// system prompt; callers talk to it through the contract.Chef surface.
package chef

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"voicechef/agent/catalog"
	"voicechef/agent/contract"
	"voicechef/agent/prompt"
	"voicechef/agent/store"
	"voicechef/agent/tools"
)

type chefImpl struct {
	restaurantPhone string
	runner          compose.Runnable[map[string]any, *schema.Message]
	allowedTools    map[string]struct{}
}

// New builds the chef for one restaurant. The menu is rendered into
// the system prompt once; menu edits require rebuilding the instance,
// which the provider's cache TTL takes care of.
func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	restaurant *store.Restaurant,
	items []store.MenuItem,
) (contract.Chef, error) {
	infos := tools.Infos()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for restaurant=%s: %v", contract.ErrModelInvoke, restaurant.PhoneNumber, err)
	}

	runner, err := compileOrderingGraph(ctx, toolModel, systemPromptFor(restaurant, items))
	if err != nil {
		return nil, fmt.Errorf("%w: compile ordering graph: %v", contract.ErrModelInvoke, err)
	}

	log.Debug().
		Str("restaurant_phone", restaurant.PhoneNumber).
		Str("policy_version", prompt.PolicyVersion).
		Int("menu_items", len(items)).
		Msg("ordering agent compiled")

	allowed := make(map[string]struct{}, len(infos))
	for _, t := range infos {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}

	return &chefImpl{
		restaurantPhone: restaurant.PhoneNumber,
		runner:          runner,
		allowedTools:    allowed,
	}, nil
}

// The graph template treats braces as placeholders, while restaurant
// and menu names are free text. Doubling the braces makes them
// literal to the template engine.
var templateEscaper = strings.NewReplacer("{", "{{", "}", "}}")

func systemPromptFor(restaurant *store.Restaurant, items []store.MenuItem) string {
	return templateEscaper.Replace(
		prompt.Chef(restaurant.Name, catalog.FormatMenu(restaurant.Name, items)))
}

func (c *chefImpl) Run(ctx context.Context, req contract.ChefRequest) (contract.ChefResponse, error) {
	payload := map[string]any{
		"session_id":       req.SessionID,
		"restaurant_phone": req.RestaurantPhone,
		"transcript":       req.Transcript,
		"conversation":     req.Conversation,
		"tool_results":     req.ToolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contract.ChefResponse{}, fmt.Errorf("%w: marshal chef payload: %v", contract.ErrValidation, err)
	}

	msg, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contract.ChefResponse{}, fmt.Errorf("%w: chef invoke: %v", contract.ErrModelInvoke, err)
	}
	if msg == nil {
		return contract.ChefResponse{}, fmt.Errorf("%w: empty chef response", contract.ErrSchemaViolation)
	}

	requests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contract.ChefResponse{}, err
	}
	if len(requests) == 0 {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			return contract.ChefResponse{}, fmt.Errorf("%w: chef returned neither message nor tool requests", contract.ErrSchemaViolation)
		}
		return contract.ChefResponse{Message: content}, nil
	}

	for _, tr := range requests {
		if _, ok := c.allowedTools[tr.Tool]; !ok {
			return contract.ChefResponse{}, fmt.Errorf("%w: tool=%s is not in the dispatch set", contract.ErrSchemaViolation, tr.Tool)
		}
	}
	return contract.ChefResponse{ToolRequests: requests}, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contract.Request, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contract.Request, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contract.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contract.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contract.Request{Tool: tool, Args: args})
	}
	return reqs, nil
}
