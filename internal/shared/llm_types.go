package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for a single model call made on behalf of a feature
// (suggestions, rag-enhance, clipper, planner-filler).
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// MetaRecorder persists AgentMeta entries. Implementations must tolerate zero-usage metas.
type MetaRecorder interface {
	RecordMeta(meta AgentMeta) error
}

// NopRecorder discards every meta.
type NopRecorder struct{}

func (NopRecorder) RecordMeta(AgentMeta) error { return nil }
