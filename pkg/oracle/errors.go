package oracle

import "fmt"

// Stable tags recorded as the reason of a fail-soft decision.
const (
	TagMissingData   = "Missing Data"
	TagEmptyResponse = "AI Empty Response"
	TagFormatError   = "AI Format Error"
	TagAPICallError  = "API Call Error"
)

// Fallback reasons for duplicate comparisons that could not be made.
const (
	ReasonMissingAbstract = "One or both abstracts were missing."
	ReasonNoResponse      = "AI returned no response."
	ReasonAnalysisFailed  = "AI analysis failed."
	ReasonNotProvided     = "No reason provided."
)

// OracleError is a classification that could not produce a verdict. Tag is
// the stable reason recorded with the fallback decision.
type OracleError struct {
	Tag string
	Err error
}

func (e *OracleError) Error() string {
	if e.Err == nil {
		return e.Tag
	}
	return fmt.Sprintf("%s: %v", e.Tag, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
