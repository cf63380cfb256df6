package evaluation

import (
	"fmt"
	"runtime/debug"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
	"github.com/launchdarkly/go-evaluator-core/lduser"
)

// SentinelExceptionFlagKey is a reserved flag key that always forces a panic from within
// Evaluate, so callers can verify their own exception-safety wrapping against a known trigger
// instead of relying on a naturally occurring bug.
const SentinelExceptionFlagKey = "$internal-test-force-exception$"

// Evaluator evaluates feature flags against users, reading flag and segment definitions from the
// FlagLookup and SegmentLookup it was constructed with.
type Evaluator struct {
	flags       FlagLookup
	segments    SegmentLookup
	bigSegments BigSegmentLookup
	loggers     ldlog.Loggers
}

// Option configures an Evaluator at construction time.
type Option interface {
	apply(*Evaluator)
}

type optionFunc func(*Evaluator)

func (f optionFunc) apply(e *Evaluator) { f(e) }

// Logger overrides the Evaluator's leveled logger. The default is ldlog.NewDefaultLoggers().
func Logger(loggers ldlog.Loggers) Option {
	return optionFunc(func(e *Evaluator) { e.loggers = loggers })
}

// WithBigSegments overrides the big-segment lookup passed to NewEvaluator, primarily so tests can
// supply a fixed membership snapshot without standing up a real store.
func WithBigSegments(lookup BigSegmentLookup) Option {
	return optionFunc(func(e *Evaluator) { e.bigSegments = lookup })
}

// NewEvaluator constructs an Evaluator backed by the given flag and segment lookups.
func NewEvaluator(flags FlagLookup, segments SegmentLookup, bigSegments BigSegmentLookup, opts ...Option) *Evaluator {
	e := &Evaluator{
		flags:       flags,
		segments:    segments,
		bigSegments: bigSegments,
		loggers:     ldlog.NewDefaultLoggers(),
	}
	for _, opt := range opts {
		opt.apply(e)
	}
	return e
}

// Evaluate evaluates flag for user, recording any prerequisite evaluations to sink (use
// NoopPrerequisiteEventSink if the caller does not need them). It never panics: any internal
// fault is recovered, logged at Error level, and reported as ERROR(MALFORMED_FLAG).
func (e *Evaluator) Evaluate(flag ldmodel.FeatureFlag, user lduser.User, sink PrerequisiteEventSink) (result EvalResult) {
	if sink == nil {
		sink = NoopPrerequisiteEventSink
	}

	defer func() {
		if r := recover(); r != nil {
			e.loggers.Errorf("evaluation of flag %q panicked: %v\n%s", flag.Key, r, debug.Stack())
			result = errorResult(ldreason.EvalErrorMalformedFlag)
		}
	}()

	if flag.Key == SentinelExceptionFlagKey {
		panic(fmt.Sprintf("forced test exception for flag %q", flag.Key))
	}

	state := &evalState{user: user, segments: e.segments, bigSegments: e.bigSegments}
	result = e.evaluateFlag(state, &flag, sink, make(map[string]bool))
	if state.bigSegmentsStatusSet {
		result.Reason = ldreason.NewEvalReasonFromReasonWithBigSegmentsStatus(result.Reason, state.bigSegmentsStatus)
	}
	return result
}

// evaluateFlag is the core state machine: off -> prerequisites -> targets -> rules -> fallthrough.
// visitedPrereqKeys guards against prerequisite cycles across recursive calls for this top-level
// Evaluate invocation.
func (e *Evaluator) evaluateFlag(
	state *evalState,
	flag *ldmodel.FeatureFlag,
	sink PrerequisiteEventSink,
	visitedPrereqKeys map[string]bool,
) EvalResult {
	if !flag.On {
		return e.offResult(flag)
	}

	if result, ok := e.evaluatePrerequisites(state, flag, sink, visitedPrereqKeys); !ok {
		return result
	}

	for i := range flag.Targets {
		t := &flag.Targets[i]
		if t.ContainsKey(state.user.GetKey()) {
			return e.variationResult(flag, t.Variation, ldreason.NewEvalReasonTargetMatch(), false)
		}
	}

	for i := range flag.Rules {
		rule := &flag.Rules[i]
		if !ruleClausesMatch(state, rule) {
			continue
		}
		ruleIndex, ruleID := i, rule.ID
		return e.resolveVariationOrRollout(state, flag, rule.VariationOrRollout, rule.RuleMatchReason(i),
			func(inExperiment bool) ldreason.EvaluationReason {
				return ldreason.NewEvalReasonRuleMatchExperiment(ruleIndex, ruleID, inExperiment)
			}, rule.TrackEvents)
	}

	return e.resolveVariationOrRollout(state, flag, flag.Fallthrough, ldreason.NewEvalReasonFallthrough(),
		ldreason.NewEvalReasonFallthroughExperiment, flag.TrackEventsFallthrough)
}

func ruleClausesMatch(state *evalState, rule *ldmodel.FlagRule) bool {
	for i := range rule.Clauses {
		if !clauseMatches(state, &rule.Clauses[i]) {
			return false
		}
	}
	return true
}

// evaluatePrerequisites evaluates each prerequisite in order, recording an event for each. It
// returns ok=false with the owning flag's short-circuit result the moment a prerequisite fails,
// is missing, or a cycle is detected; events already emitted remain emitted.
func (e *Evaluator) evaluatePrerequisites(
	state *evalState,
	flag *ldmodel.FeatureFlag,
	sink PrerequisiteEventSink,
	visitedPrereqKeys map[string]bool,
) (EvalResult, bool) {
	for i := range flag.Prerequisites {
		prereq := &flag.Prerequisites[i]

		if visitedPrereqKeys[prereq.Key] {
			e.loggers.Warnf("prerequisite cycle detected: flag %q references %q", flag.Key, prereq.Key)
			return errorResult(ldreason.EvalErrorMalformedFlag), false
		}

		prereqFlag, ok := e.flags.GetFlag(prereq.Key)
		if !ok {
			e.loggers.Warnf("flag %q has a prerequisite %q that was not found", flag.Key, prereq.Key)
			return e.offResultWithReason(flag, prereq.PrerequisiteFailedReason()), false
		}

		visitedPrereqKeys[prereq.Key] = true
		prereqResult := e.evaluateFlag(state, &prereqFlag, sink, visitedPrereqKeys)
		delete(visitedPrereqKeys, prereq.Key)

		sink.Record(PrerequisiteEvent{
			PrerequisiteFlagKey: prereq.Key,
			TargetFlagKey:       flag.Key,
			User:                state.user,
			Result:              prereqResult,
		})

		if prereqResult.IsError() {
			return prereqResult, false
		}

		if !prereqFlag.On || prereqResult.VariationIndex != prereq.Variation {
			return e.offResultWithReason(flag, prereq.PrerequisiteFailedReason()), false
		}
	}
	return EvalResult{}, true
}

func (e *Evaluator) offResult(flag *ldmodel.FeatureFlag) EvalResult {
	return e.offResultWithReason(flag, flag.OffReason())
}

func (e *Evaluator) offResultWithReason(flag *ldmodel.FeatureFlag, reason ldreason.EvaluationReason) EvalResult {
	variation, hasVariation := flag.OffVariation.Get()
	if !hasVariation {
		return EvalResult{Value: ldvalue.Null(), VariationIndex: NoVariation, Reason: reason}
	}
	return e.variationResult(flag, variation, reason, false)
}

// resolveVariationOrRollout resolves a rule's or the flag's variation-or-rollout to a concrete
// variation index, bucketing the user if it's a rollout. plainReason is used for a fixed variation
// or a non-experiment rollout; experimentReason builds the reason for an experiment rollout, given
// whether the selected variation counts toward it.
func (e *Evaluator) resolveVariationOrRollout(
	state *evalState,
	flag *ldmodel.FeatureFlag,
	vr ldmodel.VariationOrRollout,
	plainReason ldreason.EvaluationReason,
	experimentReason func(inExperiment bool) ldreason.EvaluationReason,
	forceTracking bool,
) EvalResult {
	if vr.IsZero() {
		e.loggers.Warnf("flag %q has a rule or fallthrough with neither a variation nor a rollout", flag.Key)
		return errorResult(ldreason.EvalErrorMalformedFlag)
	}

	if variation, ok := vr.Variation.Get(); ok {
		return e.variationResult(flag, variation, plainReason, forceTracking)
	}

	if len(vr.Rollout.Variations) == 0 {
		e.loggers.Warnf("flag %q has an empty rollout", flag.Key)
		return errorResult(ldreason.EvalErrorMalformedFlag)
	}

	rr := resolveRollout(state.user, flag.Key, flag.Salt, vr.Rollout)
	reason := plainReason
	if vr.Rollout.IsExperiment() {
		reason = experimentReason(rr.inExperiment)
	}
	return e.variationResult(flag, rr.variation, reason, forceTracking)
}

func (e *Evaluator) variationResult(
	flag *ldmodel.FeatureFlag,
	variation int,
	reason ldreason.EvaluationReason,
	forceTracking bool,
) EvalResult {
	if variation < 0 || variation >= len(flag.Variations) {
		e.loggers.Warnf("flag %q referenced an out-of-range variation index %d", flag.Key, variation)
		return errorResult(ldreason.EvalErrorMalformedFlag)
	}
	return EvalResult{
		Value:               flag.Variations[variation],
		VariationIndex:      variation,
		Reason:              reason,
		ForceReasonTracking: forceTracking,
	}
}
