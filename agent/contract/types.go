package contract

// Request is one tool invocation the agent asked for.
type Request struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Result statuses. Tool operations never surface Go errors to the
// agent; every outcome is one of these with a human-readable message.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the structured outcome of one tool invocation, serialized
// back to the agent verbatim.
type Result struct {
	Tool    string         `json:"tool"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func Success(tool, message string) Result {
	return Result{Tool: tool, Status: StatusSuccess, Message: message}
}

func Error(tool, message string) Result {
	return Result{Tool: tool, Status: StatusError, Message: message}
}

func (r Result) IsError() bool {
	return r.Status == StatusError
}

// ChefRequest is one agent invocation within a turn. The session id
// and restaurant phone travel with every request so the agent never
// has to ask the caller for them. Conversation carries the prior
// transcript lines; ToolResults carries outcomes of the requests the
// agent made earlier in the same turn.
type ChefRequest struct {
	SessionID       string   `json:"session_id"`
	RestaurantPhone string   `json:"restaurant_phone"`
	Transcript      string   `json:"transcript"`
	Conversation    []string `json:"conversation,omitempty"`
	ToolResults     []Result `json:"tool_results,omitempty"`
}

// ChefResponse is either a spoken reply or a batch of tool requests to
// execute before asking the agent again. Exactly one of the two is
// set.
type ChefResponse struct {
	Message      string    `json:"message,omitempty"`
	ToolRequests []Request `json:"tool_requests,omitempty"`
}
