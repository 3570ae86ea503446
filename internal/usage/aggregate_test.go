package usage

import (
	"reflect"
	"testing"
)

func record(id, op, model string, tokens int64, cost float64) Record {
	return Record{
		ID:               id,
		Operation:        op,
		Model:            model,
		PromptTokens:     tokens,
		CompletionTokens: tokens * 2,
		TotalTokens:      tokens * 3,
		EstimatedCost:    cost,
	}
}

func TestAggregateMergesFungibleByModel(t *testing.T) {
	records := []Record{
		record("r1", OpDictionaryLookup, "gpt-4o-mini", 10, 0.001),
		record("r2", OpDictionaryLookup, "gpt-4o-mini", 20, 0.002),
		record("r3", OpDictionaryLookup, "gpt-4o", 5, 0.01),
	}

	got := Aggregate(records)
	if len(got) != 2 {
		t.Fatalf("Aggregate returned %d buckets, want 2", len(got))
	}

	mini := got[0]
	if mini.Model != "gpt-4o-mini" {
		t.Errorf("first bucket model = %q, want gpt-4o-mini", mini.Model)
	}
	if mini.Records != 2 {
		t.Errorf("mini bucket records = %d, want 2", mini.Records)
	}
	if mini.PromptTokens != 30 || mini.CompletionTokens != 60 || mini.TotalTokens != 90 {
		t.Errorf("mini bucket tokens = %d/%d/%d, want 30/60/90",
			mini.PromptTokens, mini.CompletionTokens, mini.TotalTokens)
	}
	if got[1].Records != 1 {
		t.Errorf("gpt-4o bucket records = %d, want 1", got[1].Records)
	}
}

func TestAggregateNeverMergesNonFungible(t *testing.T) {
	// Same operation and model, distinct records: each article generation is
	// independently significant.
	records := []Record{
		record("a1", OpArticleGeneration, "gpt-4o", 100, 0.05),
		record("a2", OpArticleGeneration, "gpt-4o", 200, 0.10),
	}

	got := Aggregate(records)
	if len(got) != 2 {
		t.Fatalf("Aggregate returned %d buckets, want 2", len(got))
	}
	if got[0].TotalTokens != 300 || got[1].TotalTokens != 600 {
		t.Errorf("buckets tokens = %d/%d, want 300/600", got[0].TotalTokens, got[1].TotalTokens)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []Record{
		record("r1", OpDictionaryLookup, "gpt-4o-mini", 10, 0.001),
		record("a1", OpArticleGeneration, "gpt-4o", 100, 0.05),
		record("r2", OpDictionaryLookup, "gpt-4o-mini", 20, 0.002),
	}

	first := Aggregate(records)
	second := Aggregate(records)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregateStableOrder(t *testing.T) {
	records := []Record{
		record("a1", OpArticleGeneration, "gpt-4o", 1, 0),
		record("r1", OpDictionaryLookup, "gpt-4o-mini", 1, 0),
		record("a2", OpArticleGeneration, "gpt-4o", 1, 0),
		record("r2", OpDictionaryLookup, "gpt-4o-mini", 1, 0),
	}

	got := Aggregate(records)
	if len(got) != 3 {
		t.Fatalf("Aggregate returned %d buckets, want 3", len(got))
	}
	// Buckets appear in first-seen order: a1, lookups, a2
	if got[0].Operation != OpArticleGeneration || got[1].Operation != OpDictionaryLookup || got[2].Operation != OpArticleGeneration {
		t.Errorf("bucket order = %s, %s, %s", got[0].Operation, got[1].Operation, got[2].Operation)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     string
	}{
		{
			name:     "agent_name wins",
			metadata: map[string]any{"agent_name": "Lexicographer", "agent_role": "lookup"},
			want:     "Lexicographer",
		},
		{
			name:     "falls back to agent_role",
			metadata: map[string]any{"agent_role": "lookup"},
			want:     "lookup",
		},
		{
			name:     "empty agent_name is absent",
			metadata: map[string]any{"agent_name": "", "agent_role": "lookup"},
			want:     "lookup",
		},
		{
			name:     "non-string values are absent",
			metadata: map[string]any{"agent_name": 42, "agent_role": nil},
			want:     "",
		},
		{
			name:     "nil metadata",
			metadata: nil,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayName(tt.metadata); got != tt.want {
				t.Errorf("displayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayNameFirstContributorWins(t *testing.T) {
	records := []Record{
		{ID: "r1", Operation: OpDictionaryLookup, Model: "m", Metadata: map[string]any{"agent_name": "First"}},
		{ID: "r2", Operation: OpDictionaryLookup, Model: "m", Metadata: map[string]any{"agent_name": "Second"}},
	}

	got := Aggregate(records)
	if len(got) != 1 {
		t.Fatalf("Aggregate returned %d buckets, want 1", len(got))
	}
	if got[0].DisplayName != "First" {
		t.Errorf("DisplayName = %q, want First", got[0].DisplayName)
	}
}

func TestFungible(t *testing.T) {
	if !Fungible(OpDictionaryLookup) {
		t.Error("dictionary lookups should be fungible")
	}
	if Fungible(OpArticleGeneration) {
		t.Error("article generation should not be fungible")
	}
	if Fungible("some_new_operation") {
		t.Error("unknown operations default to non-fungible")
	}
}
