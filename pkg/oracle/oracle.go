// Package oracle turns records into screening decisions and duplicate
// verdicts by prompting a reasoning service.
//
// The oracle never fails: every problem (missing data, empty or malformed
// answers, service errors) is folded into a fallback outcome tagged with a
// stable reason, so orchestrators always have something to write.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/litscreen/pkg/llm"
	"github.com/entrhq/litscreen/pkg/llm/parser"
	"github.com/entrhq/litscreen/pkg/llm/tokenizer"
	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

// Classifier decides records and compares duplicate candidates.
type Classifier interface {
	Classify(ctx context.Context, rec types.Record) types.Decision
	CompareDuplicates(ctx context.Context, anchor, other types.Record) types.DuplicateVerdict
}

// tokenCounter trims prompt input to a token budget.
type tokenCounter interface {
	CountTokens(text string) int
	Truncate(text string, max int) (string, bool)
}

// Oracle is the reasoning-service backed Classifier.
type Oracle struct {
	screening  llm.Provider
	duplicates llm.Provider
	rubric     string

	maxAbstractTokens int
	counter           tokenCounter
	logger            *logging.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithRubric replaces the default eligibility rubric.
func WithRubric(rubric string) Option {
	return func(o *Oracle) {
		if strings.TrimSpace(rubric) != "" {
			o.rubric = rubric
		}
	}
}

// WithDuplicateProvider uses p for duplicate comparisons instead of the
// screening provider.
func WithDuplicateProvider(p llm.Provider) Option {
	return func(o *Oracle) {
		if p != nil {
			o.duplicates = p
		}
	}
}

// WithMaxAbstractTokens truncates abstracts to n tokens before prompting.
// Zero disables truncation.
func WithMaxAbstractTokens(n int) Option {
	return func(o *Oracle) {
		o.maxAbstractTokens = n
	}
}

// WithLogger sets the oracle's logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Oracle) {
		o.logger = l
	}
}

func withCounter(c tokenCounter) Option {
	return func(o *Oracle) {
		o.counter = c
	}
}

// New creates an Oracle that screens with provider.
func New(provider llm.Provider, opts ...Option) *Oracle {
	o := &Oracle{
		screening:  provider,
		duplicates: provider,
		rubric:     DefaultRubric,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxAbstractTokens > 0 && o.counter == nil {
		tok, err := tokenizer.New()
		if err != nil {
			o.logger.Warnf("tokenizer unavailable, using approximate truncation: %v", err)
			o.counter = tokenizer.Approximate{}
		} else {
			o.counter = tok
		}
	}
	return o
}

// screeningAnswer is the JSON shape requested from the reasoning service.
type screeningAnswer struct {
	Decision string  `json:"decision"`
	Reason   *string `json:"reason"`
}

// Classify returns the screening decision for rec. Records without a title
// or abstract are excluded without consulting the service.
func (o *Oracle) Classify(ctx context.Context, rec types.Record) types.Decision {
	d, err := o.classify(ctx, rec)
	if err == nil {
		return d
	}

	var oe *OracleError
	if !errors.As(err, &oe) {
		oe = &OracleError{Tag: TagAPICallError, Err: err}
	}

	if oe.Tag == TagMissingData {
		o.logger.Infof("record %d: %s", rec.ID, oe.Tag)
		return types.Exclude(TagMissingData)
	}
	o.logger.Warnf("[AI_ERROR] record %d: %v", rec.ID, oe)
	return types.Maybe(oe.Tag)
}

func (o *Oracle) classify(ctx context.Context, rec types.Record) (types.Decision, error) {
	title := cleanText(rec.Title)
	abstract := cleanText(rec.Abstract)
	if title == "" || abstract == "" {
		return types.Decision{}, &OracleError{Tag: TagMissingData}
	}
	abstract = o.truncate(rec.ID, abstract)

	text, err := o.screening.Complete(ctx, screeningPrompt(o.rubric, title, abstract))
	if err != nil {
		return types.Decision{}, &OracleError{Tag: TagAPICallError, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return types.Decision{}, &OracleError{Tag: TagEmptyResponse}
	}

	return parseDecision(text)
}

// parseDecision decodes and validates a screening answer.
func parseDecision(text string) (types.Decision, error) {
	var ans screeningAnswer
	if err := json.Unmarshal([]byte(parser.Clean(text)), &ans); err != nil {
		return types.Decision{}, &OracleError{Tag: TagFormatError, Err: err}
	}

	switch types.Verdict(ans.Decision) {
	case types.VerdictInclude:
		return types.Include(), nil
	case types.VerdictExclude:
		reason := ""
		if ans.Reason != nil {
			reason = strings.TrimSpace(*ans.Reason)
		}
		return types.Exclude(reason), nil
	default:
		return types.Decision{}, &OracleError{
			Tag: TagFormatError,
			Err: fmt.Errorf("unexpected decision %q", ans.Decision),
		}
	}
}

type duplicateAnswer struct {
	IsDuplicate *bool   `json:"is_duplicate"`
	Reason      *string `json:"reason"`
}

// CompareDuplicates asks whether other describes the same study as anchor.
// Any failure yields a not-duplicate verdict with an explanatory reason.
func (o *Oracle) CompareDuplicates(ctx context.Context, anchor, other types.Record) types.DuplicateVerdict {
	a := cleanText(anchor.Abstract)
	b := cleanText(other.Abstract)
	if a == "" || b == "" {
		return types.DuplicateVerdict{IsDuplicate: false, Reason: ReasonMissingAbstract}
	}
	a = o.truncate(anchor.ID, a)
	b = o.truncate(other.ID, b)

	text, err := o.duplicates.Complete(ctx, duplicatePrompt(a, b))
	if err != nil {
		o.logger.Warnf("[AI_ERROR] comparing %d and %d: %v", anchor.ID, other.ID, err)
		return types.DuplicateVerdict{IsDuplicate: false, Reason: ReasonAnalysisFailed}
	}
	if strings.TrimSpace(text) == "" {
		return types.DuplicateVerdict{IsDuplicate: false, Reason: ReasonNoResponse}
	}

	var ans duplicateAnswer
	if err := json.Unmarshal([]byte(parser.Clean(text)), &ans); err != nil {
		o.logger.Warnf("[AI_ERROR] comparing %d and %d: malformed answer: %v", anchor.ID, other.ID, err)
		return types.DuplicateVerdict{IsDuplicate: false, Reason: TagFormatError}
	}

	verdict := types.DuplicateVerdict{Reason: ReasonNotProvided}
	if ans.IsDuplicate != nil {
		verdict.IsDuplicate = *ans.IsDuplicate
	}
	if ans.Reason != nil && strings.TrimSpace(*ans.Reason) != "" {
		verdict.Reason = strings.TrimSpace(*ans.Reason)
	}
	return verdict
}

func (o *Oracle) truncate(id int64, text string) string {
	if o.maxAbstractTokens <= 0 || o.counter == nil {
		return text
	}
	out, cut := o.counter.Truncate(text, o.maxAbstractTokens)
	if cut {
		o.logger.Debugf("record %d: abstract truncated from %d to %d tokens",
			id, o.counter.CountTokens(text), o.maxAbstractTokens)
	}
	return out
}
