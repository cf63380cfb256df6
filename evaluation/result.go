// Package evaluation implements the targeting/rule evaluation engine: given a feature flag, a
// user, and read-only lookups for other flags and segments, it produces a single evaluation
// result and reports any prerequisite flags it had to evaluate along the way.
package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/lduser"
)

// NoVariation is the variation index reported when a result has no applicable variation (off
// with no offVariation set, or any error result).
const NoVariation = -1

// EvalResult is the outcome of evaluating one flag for one user: the resolved value, which
// variation (if any) produced it, why, and whether the caller should force analytics tracking
// for it regardless of the flag's own trackEvents setting.
type EvalResult struct {
	Value               ldvalue.Value
	VariationIndex      int
	Reason              ldreason.EvaluationReason
	ForceReasonTracking bool
}

// IsError reports whether this result represents an evaluation error rather than a normal
// variation.
func (r EvalResult) IsError() bool {
	return r.Reason.GetKind() == ldreason.EvalReasonError
}

func errorResult(kind ldreason.EvalErrorKind) EvalResult {
	return EvalResult{Value: ldvalue.Null(), VariationIndex: NoVariation, Reason: ldreason.NewEvalReasonError(kind)}
}

// PrerequisiteEvent describes one prerequisite flag evaluation performed while evaluating some
// other flag, for the caller's analytics pipeline to observe.
type PrerequisiteEvent struct {
	PrerequisiteFlagKey string
	TargetFlagKey       string
	User                lduser.User
	Result              EvalResult
}

// PrerequisiteEventSink receives prerequisite events as they are produced, synchronously, on the
// evaluating goroutine. Implementations shared across goroutines must be safe for concurrent use.
type PrerequisiteEventSink interface {
	Record(event PrerequisiteEvent)
}

// NoopPrerequisiteEventSink discards every event; use it when the caller does not need
// prerequisite observation.
var NoopPrerequisiteEventSink PrerequisiteEventSink = noopSink{}

type noopSink struct{}

func (noopSink) Record(PrerequisiteEvent) {}

type prerequisiteEventSinkFunc func(PrerequisiteEvent)

func (f prerequisiteEventSinkFunc) Record(event PrerequisiteEvent) {
	f(event)
}
