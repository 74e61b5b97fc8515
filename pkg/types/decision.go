package types

import "fmt"

// Verdict is the tag of a screening Decision.
type Verdict string

const (
	VerdictInclude Verdict = "include" // VerdictInclude keeps the record for full-text review.
	VerdictExclude Verdict = "exclude" // VerdictExclude removes the record, optionally with a reason.
	VerdictMaybe   Verdict = "maybe"   // VerdictMaybe abstains and leaves the record for a human.
)

// Decision is the screening outcome for a single record.
//
// Include never carries a reason. Exclude may carry a short reason that is
// forwarded verbatim to the platform; the reason vocabulary is not enforced.
// Maybe always carries the tag describing why the classifier abstained.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Include returns an inclusion decision.
func Include() Decision {
	return Decision{Verdict: VerdictInclude}
}

// Exclude returns an exclusion decision with an optional reason.
func Exclude(reason string) Decision {
	return Decision{Verdict: VerdictExclude, Reason: reason}
}

// Maybe returns an abstaining decision tagged with reason.
func Maybe(reason string) Decision {
	return Decision{Verdict: VerdictMaybe, Reason: reason}
}

func (d Decision) String() string {
	if d.Reason == "" {
		return string(d.Verdict)
	}
	return fmt.Sprintf("%s (%s)", d.Verdict, d.Reason)
}

// DuplicateVerdict is the outcome of comparing a cluster member to its anchor.
type DuplicateVerdict struct {
	IsDuplicate bool
	Reason      string
}
