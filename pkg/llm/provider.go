// Package llm provides abstractions for the reasoning service that
// classifies records.
//
// Example usage:
//
//	provider, err := gemini.NewProvider(ctx, os.Getenv("GEMINI_API_KEY"),
//	    gemini.WithModel("gemini-2.5-flash-lite"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := provider.Complete(ctx, "Respond with {\"ok\": true}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(text)
package llm

import (
	"context"
)

// Provider sends a single prompt to a text-completion service.
//
// Complete returns the model's text with any <thinking> sections removed.
// An empty string with a nil error means the service answered with no text;
// callers decide what that means. Transport and service failures are
// returned as errors.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// GetModel returns the model name being used.
	GetModel() string
}

// ModelCloner is an optional interface for providers that can direct calls to
// another model while sharing credentials and transport with the original.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// WithModel returns p retargeted at model when p supports cloning and model
// is non-empty, and p itself otherwise.
func WithModel(p Provider, model string) Provider {
	if model == "" || model == p.GetModel() {
		return p
	}
	if cloner, ok := p.(ModelCloner); ok {
		return cloner.CloneWithModel(model)
	}
	return p
}
