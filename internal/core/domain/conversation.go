package domain

import "time"

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// WorkerName tags tool messages with the worker that produced them.
type WorkerName string

const (
	WorkerRetrieval WorkerName = "retrieval"
	WorkerPatient   WorkerName = "patient"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	Worker  WorkerName  `json:"worker,omitempty"`
}

// Route is the supervisor's decision about which node runs next.
type Route string

const (
	RouteRetrievalWorker Route = "RETRIEVAL_WORKER"
	RoutePatientWorker   Route = "PATIENT_WORKER"
	RouteFinish          Route = "FINISH"
)

// ParseRoute maps supervisor output to a known route. Unrecognized values
// report ok=false so callers can fall back to FINISH.
func ParseRoute(s string) (Route, bool) {
	switch Route(s) {
	case RouteRetrievalWorker, RoutePatientWorker, RouteFinish:
		return Route(s), true
	default:
		return RouteFinish, false
	}
}

// Conversation is the state carried through one graph turn: an append-only
// message log plus the supervisor's last routing decision.
type Conversation struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Next     Route     `json:"next,omitempty"`
}

func NewConversation(id string) *Conversation {
	return &Conversation{ID: id}
}

func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// LastFromWorker returns the most recent message appended by the given
// worker, if any.
func (c *Conversation) LastFromWorker(worker WorkerName) (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleTool && c.Messages[i].Worker == worker {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// LastUserMessage returns the most recent user message content.
func (c *Conversation) LastUserMessage() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}

// TurnResult is the outcome of one full graph turn.
type TurnResult struct {
	ConversationID   string  `json:"conversation_id"`
	Answer           string  `json:"answer"`
	Hops             int     `json:"hops"`
	Routes           []Route `json:"routes,omitempty"`
	DecisionFallback bool    `json:"decision_fallback,omitempty"`
}

// TurnEvent is published after a completed turn for the external
// chat-history layer.
type TurnEvent struct {
	ConversationID string    `json:"conversation_id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Hops           int       `json:"hops"`
	CreatedAt      time.Time `json:"created_at"`
}
