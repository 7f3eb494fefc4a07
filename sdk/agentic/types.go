package agentic

// Session identity item types accepted by the platform.
const (
	IdentityUserReference    = "userReference"
	IdentitySessionReference = "sessionReference"
)

// Streaming modes accepted by the execute endpoint.
const (
	StreamTokens   = "tokens"
	StreamMessages = "messages"
	StreamCustom   = "custom"
)

// Debug modes accepted by the execute endpoint.
const (
	DebugAll          = "all"
	DebugFunctionCall = "function-call"
	DebugThoughts     = "thoughts"
)

// Run lifecycle states reported by the status endpoint.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// SessionIdentityItem is one entry of the sessionIdentity array that scopes
// a run to a user and conversation context.
type SessionIdentityItem struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// InputItem is one entry of the input array sent to the execute endpoint.
type InputItem struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// OutputItem is one entry of the output array produced by a run.
type OutputItem struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamConfig controls status streaming on the execute endpoint.
type StreamConfig struct {
	Enable     bool   `json:"enable"`
	StreamMode string `json:"streamMode,omitempty"`
}

// DebugConfig controls debug output on the execute endpoint.
type DebugConfig struct {
	Enable    bool   `json:"enable"`
	DebugMode string `json:"debugMode,omitempty"`
}

// ExecuteRequest is the wire shape of the execute endpoint request body.
type ExecuteRequest struct {
	SessionIdentity []SessionIdentityItem `json:"sessionIdentity"`
	Input           []InputItem           `json:"input"`
	Stream          *StreamConfig         `json:"stream,omitempty"`
	Debug           *DebugConfig          `json:"debug,omitempty"`
}

// SessionInfo is the session block the platform attaches to events and
// responses. Only the fields the CLI consumes are typed; unknown keys are
// dropped at the parse boundary.
type SessionInfo struct {
	RunID            string `json:"runId,omitempty"`
	UserReference    string `json:"userReference,omitempty"`
	SessionReference string `json:"sessionReference,omitempty"`
	Status           string `json:"status,omitempty"`
}

// RunEvent is one decoded object from a "data:" line of the status stream.
// Every field is optional on the wire; events carrying none of them are
// legal and contribute nothing.
type RunEvent struct {
	EventIndex  int          `json:"eventIndex,omitempty"`
	MessageID   string       `json:"messageId,omitempty"`
	Output      []OutputItem `json:"output,omitempty"`
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
	IsLastEvent bool         `json:"isLastEvent,omitempty"`
}

// RunResult is the normalized outcome of an execute call, whether it came
// from a plain JSON response or was collected from an event stream.
type RunResult struct {
	Output      []OutputItem `json:"output"`
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
	Streaming   bool         `json:"streaming,omitempty"`

	// Raw is the unmodified response body for non-streamed runs. Streamed
	// results are assembled client-side and carry no raw body.
	Raw []byte `json:"-"`
}

// Text concatenates the content of all text output items in order.
func (r *RunResult) Text() string {
	var s string
	for _, item := range r.Output {
		if item.Type == "text" {
			s += item.Content
		}
	}
	return s
}

// BuildSessionIdentity assembles a sessionIdentity array from a user
// reference and an optional session reference.
func BuildSessionIdentity(userRef, sessionRef string) []SessionIdentityItem {
	identity := []SessionIdentityItem{
		{Type: IdentityUserReference, Value: userRef},
	}
	if sessionRef != "" {
		identity = append(identity, SessionIdentityItem{
			Type:  IdentitySessionReference,
			Value: sessionRef,
		})
	}
	return identity
}

// BuildInput wraps query text in the input array shape.
func BuildInput(text string) []InputItem {
	return []InputItem{{Type: "text", Content: text}}
}

func validStreamMode(mode string) bool {
	switch mode {
	case StreamTokens, StreamMessages, StreamCustom:
		return true
	}
	return false
}

func validDebugMode(mode string) bool {
	switch mode {
	case DebugAll, DebugFunctionCall, DebugThoughts:
		return true
	}
	return false
}
