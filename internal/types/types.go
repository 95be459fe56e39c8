package types

import "intake-backend/internal/intake"

type StartRequest struct {
	Service string `json:"service"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// ChatResponse carries the assistant turn with its tags stripped from Reply
// and exposed as fields.
type ChatResponse struct {
	SessionID   string   `json:"sessionId"`
	Service     string   `json:"service"`
	Reply       string   `json:"reply"`
	QuestionKey string   `json:"questionKey,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
	MaxSelect   int      `json:"maxSelect,omitempty"`
	LowBudget   bool     `json:"lowBudget,omitempty"`
	Proposal    string   `json:"proposal,omitempty"`
	Done        bool     `json:"done"`
}

// StateRequest asks for a stateless replay of a transcript.
type StateRequest struct {
	Service  string           `json:"service"`
	Messages []intake.Message `json:"messages"`
}

type StateResponse struct {
	State *intake.State `json:"state"`
	Next  ChatResponse  `json:"next"`
}

type ServicesResponse struct {
	Services []intake.ServiceInfo `json:"services"`
	Default  string               `json:"default,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewChatResponse copies a reply into the transport shape.
func NewChatResponse(sessionID, service string, r intake.Reply) ChatResponse {
	return ChatResponse{
		SessionID:   sessionID,
		Service:     service,
		Reply:       r.Text,
		QuestionKey: r.QuestionKey,
		Suggestions: r.Suggestions,
		MultiSelect: r.MultiSelect,
		MaxSelect:   r.MaxSelect,
		LowBudget:   r.LowBudget,
		Proposal:    r.Proposal,
		Done:        r.Done,
	}
}
