package driven

import "context"

// LLMService is a chat completion backend. The OpenAI adapter also serves
// any endpoint that speaks the same API.
type LLMService interface {
	// Chat sends the conversation and returns the reply text unvalidated.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks credentials and reachability without generating text.
	Ping(ctx context.Context) error

	Close() error
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tune a single request. Zero values leave the provider default.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64

	// JSONResponse requests JSON mode where supported. The reply still
	// needs validating.
	JSONResponse bool
}
