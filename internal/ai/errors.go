package ai

import "fmt"

// UpstreamError wraps a failure from an external model service. The stage
// that hit the failure is named by Service ("embeddings", "llm") so logs can
// tell them apart; HTTP callers still see a uniform internal error.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failure: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
