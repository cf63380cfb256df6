// Package ldmodel defines the in-memory representation of feature flags and user segments, and
// the one-time preprocessing step that prepares them for fast repeated evaluation.
//
// Values here mirror the wire format described in the data model: flags and segments are meant to
// be constructed either by unmarshaling JSON (see marshal.go/unmarshal.go) or via ldbuilders, never
// by hand-filling a struct literal in production code, since both paths guarantee that Preprocess*
// has been run before the flag or segment is evaluated.
package ldmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Operator names one of the comparison behaviors a Clause can apply. Unrecognized operator strings
// (e.g. from a newer wire format than this SDK generation knows about) fall back to a predicate
// that never matches, rather than an error.
type Operator string

// The full set of operators a Clause may specify. These spellings are normative and shared across
// every SDK in the product family; do not rename.
const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSegmentMatch       Operator = "segmentMatch"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
)

// RolloutKind distinguishes a plain percentage rollout from an experiment.
type RolloutKind string

const (
	// RolloutKindRollout is the default: a weighted split with no experimentation tracking.
	RolloutKindRollout RolloutKind = "rollout"
	// RolloutKindExperiment is a rollout whose non-untracked variations set inExperiment in the reason.
	RolloutKindExperiment RolloutKind = "experiment"
)

// FeatureFlag is the full definition of one feature flag, as loaded from the data store.
//
// A FeatureFlag must be run through PreprocessFlag exactly once, after deserialization and before
// its first evaluation; FeatureFlag.UnmarshalJSON and the streaming unmarshal functions in this
// package do this automatically.
type FeatureFlag struct {
	Key                    string
	Version                int
	On                     bool
	Prerequisites          []Prerequisite
	Targets                []Target
	Rules                  []FlagRule
	Fallthrough            VariationOrRollout
	OffVariation           ldvalue.OptionalInt
	Variations             []ldvalue.Value
	Salt                   string
	TrackEvents            bool
	TrackEventsFallthrough bool
	DebugEventsUntilDate   ldtime.UnixMillisecondTime
	Deleted                bool

	preprocessed flagPreprocessedData
}

// Prerequisite is a dependency of a flag on another flag's variation.
type Prerequisite struct {
	Key       string
	Variation int

	preprocessed prerequisitePreprocessedData
}

// Target is a set of user keys that should receive a specific variation, bypassing rules.
type Target struct {
	Values    []string
	Variation int

	preprocessed targetPreprocessedData
}

// FlagRule is one targeting rule within a flag: a conjunction of clauses, plus the variation or
// rollout to serve when every clause matches. Order within FeatureFlag.Rules is significant.
type FlagRule struct {
	VariationOrRollout
	ID          string
	Clauses     []Clause
	TrackEvents bool

	preprocessed flagRulePreprocessedData
}

// VariationOrRollout names exactly one of a fixed variation index or a weighted Rollout; both a
// Rule's targeting outcome and a flag's Fallthrough are expressed this way.
type VariationOrRollout struct {
	Variation ldvalue.OptionalInt
	Rollout   Rollout
}

// IsZero reports whether neither a fixed variation nor a rollout (with at least one weighted
// variation) was specified. A zero VariationOrRollout is a malformed-flag condition.
func (v VariationOrRollout) IsZero() bool {
	return !v.Variation.IsDefined() && len(v.Rollout.Variations) == 0
}

// Rollout is a weighted assignment of variations over the [0, 1) bucket space produced by bucketing.
type Rollout struct {
	Kind       RolloutKind
	Variations []WeightedVariation
	BucketBy   string
	Seed       ldvalue.OptionalInt
}

// IsExperiment reports whether matching this rollout should be eligible to set inExperiment.
func (r Rollout) IsExperiment() bool {
	return r.Kind == RolloutKindExperiment
}

// WeightedVariation is one entry in a Rollout: a variation index and its weight in parts per
// 100,000 (weights need not sum to exactly 100,000; see the bucketing algorithm's overflow rule).
type WeightedVariation struct {
	Variation int
	Weight    int
	Untracked bool
}

// Clause is a single targeting condition: an attribute, an operator, a list of comparison values
// (OR'd together), and whether the result should be negated.
type Clause struct {
	Attribute string
	Op        Operator
	Values    []ldvalue.Value
	Negate    bool

	preprocessed clausePreprocessedData
}

// Segment is a reusable, named set of users referenced by segmentMatch clauses.
//
// A Segment must be run through PreprocessSegment exactly once, after deserialization and before
// its first evaluation.
type Segment struct {
	Key        string
	Version    int
	Included   []string
	Excluded   []string
	Rules      []SegmentRule
	Salt       string
	Unbounded  bool
	Generation ldvalue.OptionalInt
	Deleted    bool

	preprocessed segmentPreprocessedData
}

// SegmentRule is one inclusion rule within a bounded segment: a conjunction of clauses, optionally
// gated by a weighted bucket check.
type SegmentRule struct {
	ID       string
	Clauses  []Clause
	Weight   ldvalue.OptionalInt
	BucketBy string
}
