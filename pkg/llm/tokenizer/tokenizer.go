// Package tokenizer counts and trims prompt text in model tokens.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is close enough to both supported model families for
// budgeting purposes.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the default encoding. Loading may need network access the first
// time; callers should fall back to Approximate when it fails.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns text cut to at most max tokens and whether anything was
// removed.
func (t *Tokenizer) Truncate(text string, max int) (string, bool) {
	if max <= 0 {
		return text, false
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text, false
	}
	return t.enc.Decode(tokens[:max]), true
}

// Approximate estimates tokens at roughly four characters each.
type Approximate struct{}

// CountTokens returns the approximate token count of text.
func (Approximate) CountTokens(text string) int {
	return (len(text) + 3) / 4
}

// Truncate cuts text to about max tokens on a rune boundary.
func (Approximate) Truncate(text string, max int) (string, bool) {
	if max <= 0 || len(text) <= max*4 {
		return text, false
	}
	runes := []rune(text)
	limit := max * 4
	if limit > len(runes) {
		return text, false
	}
	return string(runes[:limit]), true
}
