package generation

import (
	"fmt"
	"strings"

	"github.com/linguara-ai/linguara-cli/internal/api"
)

// Inputs are the parameters for one article generation request.
type Inputs struct {
	// Language is the target language (e.g., "German")
	Language string

	// Level is the CEFR proficiency level (e.g., "B2")
	Level string

	// Length is the requested word count (e.g., "500")
	Length string

	// Topic is the subject of the article
	Topic string
}

// ValidationError reports missing generation inputs. Detected before any
// network call and never retried.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required inputs: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required field is present.
func (in Inputs) Validate() error {
	var missing []string
	if in.Language == "" {
		missing = append(missing, "language")
	}
	if in.Level == "" {
		missing = append(missing, "level")
	}
	if in.Length == "" {
		missing = append(missing, "length")
	}
	if in.Topic == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func (in Inputs) request(force bool) api.GenerateRequest {
	return api.GenerateRequest{
		Language: in.Language,
		Level:    in.Level,
		Length:   in.Length,
		Topic:    in.Topic,
		Force:    force,
	}
}
