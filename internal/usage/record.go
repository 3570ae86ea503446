package usage

import "time"

// Record is one immutable usage event written by the backend for a single
// model call (an article generation, a dictionary lookup batch, etc.).
type Record struct {
	ID string `json:"id"`

	// Operation tags what kind of work the tokens paid for
	Operation string `json:"operation"`
	Model     string `json:"model"`

	// Token usage
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`

	// EstimatedCost is in USD
	EstimatedCost float64 `json:"estimated_cost"`

	// Metadata may carry display hints such as agent_name/agent_role
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Common operation tags used by the backend.
const (
	OpArticleGeneration = "article_generation"
	OpDictionaryLookup  = "dictionary_lookup"
)
