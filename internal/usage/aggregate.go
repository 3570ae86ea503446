package usage

// Aggregated is a view-side summary of one or more usage records. It is
// recomputed on every aggregation pass and never persisted.
type Aggregated struct {
	Operation string
	Model     string

	// DisplayName is a best-effort label taken from record metadata
	DisplayName string

	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	EstimatedCost    float64

	// Records is how many records were merged into this bucket
	Records int
}

// fungibleOperations lists operation tags whose records are interchangeable:
// no single record is independently significant, so they are merged per
// (operation, model) pair. Any operation not listed here is non-fungible and
// keeps one bucket per record.
var fungibleOperations = map[string]bool{
	OpDictionaryLookup: true,
}

// Fungible reports whether records with the given operation tag are merged
// during aggregation.
func Fungible(operation string) bool {
	return fungibleOperations[operation]
}

// Aggregate collapses records into per-bucket summaries.
//
// Fungible operations merge per (operation, model); everything else stays one
// bucket per record id, even when operation and model match. Token and cost
// fields are summed as-is. Output order is the insertion order of first-seen
// bucket keys, so identical input always yields identical output.
func Aggregate(records []Record) []Aggregated {
	buckets := make(map[string]*Aggregated, len(records))
	var order []string

	for _, r := range records {
		key := r.ID
		if Fungible(r.Operation) {
			key = r.Operation + "\x00" + r.Model
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &Aggregated{
				Operation:   r.Operation,
				Model:       r.Model,
				DisplayName: displayName(r.Metadata),
			}
			buckets[key] = bucket
			order = append(order, key)
		}

		bucket.PromptTokens += r.PromptTokens
		bucket.CompletionTokens += r.CompletionTokens
		bucket.TotalTokens += r.TotalTokens
		bucket.EstimatedCost += r.EstimatedCost
		bucket.Records++
	}

	out := make([]Aggregated, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key])
	}
	return out
}

// displayName extracts a label from record metadata: agent_name wins over
// agent_role; empty or non-string values are treated as absent.
func displayName(metadata map[string]any) string {
	for _, key := range []string{"agent_name", "agent_role"} {
		if v, ok := metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
