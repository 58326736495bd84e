// Package driver runs one speech turn end to end: it resolves the
// restaurant and order for the call, consults the chef, executes the
// tool requests the chef makes, and returns the line to speak back.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"voicechef/agent/contract"
	"voicechef/agent/session"
	"voicechef/agent/store"
)

var ErrInvalidTurn = errors.New("invalid turn")

const (
	defaultMaxToolRounds = 4

	repromptLine = "Sorry, I didn't catch that. Could you say that again?"
	overloadLine = "Sorry, I'm having trouble with that request. Could you say it one more time, or one step at a time?"
)

// TurnInput is one gathered speech result from the telephony webhook.
// Transcript may be empty when the caller said nothing.
type TurnInput struct {
	CallSID         string
	RestaurantPhone string
	Transcript      string
}

// TurnOutput is what the webhook speaks back. EndCall is set once the
// order reached CONFIRMED so the caller can be hung up on politely.
type TurnOutput struct {
	Reply   string
	EndCall bool
}

type Config struct {
	// MaxToolRounds bounds how many times one turn may go back to the
	// chef with tool results before giving up.
	MaxToolRounds int
}

type Driver struct {
	menu     contract.MenuReader
	orders   contract.OrderWriter
	sessions session.Store
	chefs    contract.ChefProvider
	gateway  contract.ToolGateway

	graphRunner compose.Runnable[TurnInput, TurnOutput]

	maxToolRounds int
}

func New(
	menu contract.MenuReader,
	orders contract.OrderWriter,
	sessions session.Store,
	chefs contract.ChefProvider,
	gateway contract.ToolGateway,
	cfg Config,
) (*Driver, error) {
	if menu == nil {
		return nil, errors.New("menu reader is required")
	}
	if orders == nil {
		return nil, errors.New("order writer is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if chefs == nil {
		return nil, errors.New("chef provider is required")
	}
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}

	d := &Driver{
		menu:          menu,
		orders:        orders,
		sessions:      sessions,
		chefs:         chefs,
		gateway:       gateway,
		maxToolRounds: maxRounds,
	}

	graphRunner, err := d.compileHandleTurnGraph()
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

func (d *Driver) HandleTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	return d.graphRunner.Invoke(ctx, in)
}

func validateTurn(in TurnInput) (*turnState, error) {
	if strings.TrimSpace(in.CallSID) == "" {
		return nil, fmt.Errorf("%w: call sid is required", ErrInvalidTurn)
	}
	if strings.TrimSpace(in.RestaurantPhone) == "" {
		return nil, fmt.Errorf("%w: restaurant phone is required", ErrInvalidTurn)
	}
	return &turnState{
		in:         in,
		transcript: strings.TrimSpace(in.Transcript),
	}, nil
}

// conversationLines rebuilds the spoken history from the order's event
// log so the chef sees the whole call, not just this turn.
func conversationLines(events []store.ConversationEvent) []string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		switch ev.Kind {
		case store.EventKindUser:
			lines = append(lines, "caller: "+ev.Payload)
		case store.EventKindAgent:
			lines = append(lines, "agent: "+ev.Payload)
		}
	}
	return lines
}
