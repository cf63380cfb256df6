package ldmodel

import (
	"regexp"
	"time"

	"github.com/launchdarkly/go-semver"

	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

type targetPreprocessedData struct {
	valuesMap map[string]struct{}
}

type prerequisitePreprocessedData struct {
	failedReason ldreason.EvaluationReason
}

type flagRulePreprocessedData struct {
	matchReason ldreason.EvaluationReason
}

type flagPreprocessedData struct {
	offReason ldreason.EvaluationReason
}

type segmentPreprocessedData struct {
	includeMap map[string]struct{}
	excludeMap map[string]struct{}
}

type clausePreprocessedData struct {
	values    []clausePreprocessedValue
	valuesMap map[jsonPrimitiveValueKey]struct{}
}

// ClauseValue is the parsed auxiliary form of one clause value, for operators whose comparison
// needs more than a raw ldvalue.Value (matches, before/after, the semver operators). Valid is
// false when the raw value could not be parsed under that operator, in which case the operator
// must never match. Exported so the evaluation package's operator dispatch can read it without
// re-parsing on every evaluation.
type ClauseValue = clausePreprocessedValue

type clausePreprocessedValue struct {
	valid        bool
	parsedRegexp *regexp.Regexp
	parsedTime   time.Time
	parsedSemver semver.Version
}

// Valid reports whether this clause value was successfully parsed for its operator.
func (v clausePreprocessedValue) Valid() bool { return v.valid }

// Regexp returns the compiled pattern for a matches clause value, or nil if parsing failed.
func (v clausePreprocessedValue) Regexp() *regexp.Regexp { return v.parsedRegexp }

// Time returns the parsed timestamp for a before/after clause value.
func (v clausePreprocessedValue) Time() time.Time { return v.parsedTime }

// SemVer returns the parsed version for a semVer* clause value.
func (v clausePreprocessedValue) SemVer() semver.Version { return v.parsedSemver }

type jsonPrimitiveValueKey struct {
	valueType    ldvalue.ValueType
	booleanValue bool
	numberValue  float64
	stringValue  string
}

func (j jsonPrimitiveValueKey) isValid() bool {
	return j.valueType != ldvalue.NullType
}

// PreprocessFlag precomputes the interned reasons and per-clause auxiliary values (compiled
// regexes, parsed dates and semvers, lookup sets) that let steady-state evaluation of this flag
// avoid both allocation and repeated parsing.
//
// Call this exactly once, immediately after a flag is decoded from its wire form or built with
// ldbuilders. The unmarshal functions in this package do this automatically. Evaluation is still
// correct against a flag that skipped this step - see the SkipPreprocessing unmarshal option - it is
// simply slower, and any artifacts it needs are then built on demand and discarded.
func PreprocessFlag(f *FeatureFlag) {
	f.preprocessed.offReason = ldreason.NewEvalReasonOff()

	for i, t := range f.Targets {
		f.Targets[i].preprocessed.valuesMap = preprocessStringSet(t.Values)
	}

	for i, p := range f.Prerequisites {
		f.Prerequisites[i].preprocessed.failedReason = ldreason.NewEvalReasonPrerequisiteFailed(p.Key)
	}

	for i, r := range f.Rules {
		f.Rules[i].preprocessed.matchReason = ldreason.NewEvalReasonRuleMatch(i, r.ID)
		for j, c := range r.Clauses {
			f.Rules[i].Clauses[j].preprocessed = preprocessClause(c)
		}
	}
}

// PreprocessSegment precomputes the include/exclude lookup sets and per-clause auxiliary values
// for a segment's rules, analogous to PreprocessFlag.
func PreprocessSegment(s *Segment) {
	s.preprocessed.includeMap = preprocessStringSet(s.Included)
	s.preprocessed.excludeMap = preprocessStringSet(s.Excluded)

	for i, r := range s.Rules {
		for j, c := range r.Clauses {
			s.Rules[i].Clauses[j].preprocessed = preprocessClause(c)
		}
	}
}

// OffReason returns the flag's interned OFF reason, computing it on demand if preprocessing was
// skipped.
func (f *FeatureFlag) OffReason() ldreason.EvaluationReason { return f.offReason() }

// RuleMatchReason returns the interned RULE_MATCH reason for this rule at the given index,
// computing it on demand if preprocessing was skipped.
func (r *FlagRule) RuleMatchReason(index int) ldreason.EvaluationReason { return r.ruleMatchReason(index) }

// PrerequisiteFailedReason returns the interned PREREQUISITE_FAILED reason for this prerequisite,
// computing it on demand if preprocessing was skipped.
func (p *Prerequisite) PrerequisiteFailedReason() ldreason.EvaluationReason {
	return p.prerequisiteFailedReason()
}

// ContainsKey reports whether key is one of this target's values.
func (t *Target) ContainsKey(key string) bool { return t.containsKey(key) }

// offReason returns the flag's interned OFF reason, computing it on demand if preprocessing was
// skipped (it carries no per-flag data, so this is cheap even unpreprocessed).
func (f *FeatureFlag) offReason() ldreason.EvaluationReason {
	if f.preprocessed.offReason.IsDefined() {
		return f.preprocessed.offReason
	}
	return ldreason.NewEvalReasonOff()
}

// ruleMatchReason returns the interned RULE_MATCH reason for rule i, computing it on demand if
// preprocessing was skipped.
func (r *FlagRule) ruleMatchReason(index int) ldreason.EvaluationReason {
	if r.preprocessed.matchReason.IsDefined() {
		return r.preprocessed.matchReason
	}
	return ldreason.NewEvalReasonRuleMatch(index, r.ID)
}

// prerequisiteFailedReason returns the interned PREREQUISITE_FAILED reason, computing it on demand
// if preprocessing was skipped.
func (p *Prerequisite) prerequisiteFailedReason() ldreason.EvaluationReason {
	if p.preprocessed.failedReason.IsDefined() {
		return p.preprocessed.failedReason
	}
	return ldreason.NewEvalReasonPrerequisiteFailed(p.Key)
}

// valuesMap returns the lookup set built for an `in` clause with multiple primitive values, or nil
// if preprocessing didn't build one (too few values, non-primitive values, or skipped).
func (c *Clause) valuesMap() map[jsonPrimitiveValueKey]struct{} {
	return c.preprocessed.valuesMap
}

// preprocessedValues returns the per-value parsed auxiliary data for operators that need it
// (matches, before/after, the semver operators), computing it fresh if preprocessing was skipped.
func (c *Clause) preprocessedValues() []clausePreprocessedValue {
	if c.preprocessed.values != nil {
		return c.preprocessed.values
	}
	return computeClauseValues(c.Op, c.Values)
}

// PreprocessedValues exposes the per-value parsed auxiliary data (compiled regexes, parsed dates
// and semvers) for the evaluation package's operator dispatch, computing it on demand if this
// clause's flag or segment was never preprocessed.
func (c *Clause) PreprocessedValues() []ClauseValue {
	return c.preprocessedValues()
}

// MatchesIn reports whether attrValue equals any of the clause's values, which is the entire
// behavior of the `in` operator. It uses the precomputed lookup set when available and falls back
// to a linear scan with ldvalue.Value.Equal otherwise (values containing arrays/objects, or a
// clause that was never preprocessed).
func (c *Clause) MatchesIn(attrValue ldvalue.Value) bool {
	if m := c.valuesMap(); m != nil {
		key := asPrimitiveValueKey(attrValue)
		if !key.isValid() {
			return false
		}
		_, ok := m[key]
		return ok
	}
	for _, v := range c.Values {
		if attrValue.Equal(v) {
			return true
		}
	}
	return false
}

func (t *Target) containsKey(key string) bool {
	if t.preprocessed.valuesMap != nil {
		_, ok := t.preprocessed.valuesMap[key]
		return ok
	}
	for _, v := range t.Values {
		if v == key {
			return true
		}
	}
	return false
}

func (s *Segment) includes(key string) bool {
	if s.preprocessed.includeMap != nil {
		_, ok := s.preprocessed.includeMap[key]
		return ok
	}
	for _, v := range s.Included {
		if v == key {
			return true
		}
	}
	return false
}

// Includes reports whether key is in the segment's explicit included-keys list.
func (s *Segment) Includes(key string) bool { return s.includes(key) }

// Excludes reports whether key is in the segment's explicit excluded-keys list.
func (s *Segment) Excludes(key string) bool { return s.excludes(key) }

func (s *Segment) excludes(key string) bool {
	if s.preprocessed.excludeMap != nil {
		_, ok := s.preprocessed.excludeMap[key]
		return ok
	}
	for _, v := range s.Excluded {
		if v == key {
			return true
		}
	}
	return false
}

func preprocessClause(c Clause) clausePreprocessedData {
	ret := clausePreprocessedData{}
	if c.Op == OperatorIn && len(c.Values) > 1 {
		valid := true
		m := make(map[jsonPrimitiveValueKey]struct{}, len(c.Values))
		for _, v := range c.Values {
			if key := asPrimitiveValueKey(v); key.isValid() {
				m[key] = struct{}{}
			} else {
				valid = false
				break
			}
		}
		if valid {
			ret.valuesMap = m
		}
	}
	ret.values = computeClauseValues(c.Op, c.Values)
	return ret
}

func computeClauseValues(op Operator, values []ldvalue.Value) []clausePreprocessedValue {
	switch op {
	case OperatorMatches:
		return mapClauseValues(values, func(v ldvalue.Value) clausePreprocessedValue {
			r := parseRegexp(v)
			return clausePreprocessedValue{valid: r != nil, parsedRegexp: r}
		})
	case OperatorBefore, OperatorAfter:
		return mapClauseValues(values, func(v ldvalue.Value) clausePreprocessedValue {
			t, ok := parseDateTime(v)
			return clausePreprocessedValue{valid: ok, parsedTime: t}
		})
	case OperatorSemVerEqual, OperatorSemVerGreaterThan, OperatorSemVerLessThan:
		return mapClauseValues(values, func(v ldvalue.Value) clausePreprocessedValue {
			s, ok := parseSemVer(v)
			return clausePreprocessedValue{valid: ok, parsedSemver: s}
		})
	default:
		return nil
	}
}

func asPrimitiveValueKey(v ldvalue.Value) jsonPrimitiveValueKey {
	switch v.Type() {
	case ldvalue.BoolType:
		return jsonPrimitiveValueKey{valueType: ldvalue.BoolType, booleanValue: v.BoolValue()}
	case ldvalue.NumberType:
		return jsonPrimitiveValueKey{valueType: ldvalue.NumberType, numberValue: v.Float64Value()}
	case ldvalue.StringType:
		return jsonPrimitiveValueKey{valueType: ldvalue.StringType, stringValue: v.StringValue()}
	default:
		return jsonPrimitiveValueKey{}
	}
}

func preprocessStringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	ret := make(map[string]struct{}, len(values))
	for _, v := range values {
		ret[v] = struct{}{}
	}
	return ret
}

func mapClauseValues(values []ldvalue.Value, fn func(ldvalue.Value) clausePreprocessedValue) []clausePreprocessedValue {
	ret := make([]clausePreprocessedValue, len(values))
	for i, v := range values {
		ret[i] = fn(v)
	}
	return ret
}

func parseDateTime(value ldvalue.Value) (time.Time, bool) {
	switch value.Type() {
	case ldvalue.StringType:
		t, err := time.Parse(time.RFC3339Nano, value.StringValue())
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case ldvalue.NumberType:
		ms := value.Float64Value()
		return time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseRegexp(value ldvalue.Value) *regexp.Regexp {
	if !value.IsString() {
		return nil
	}
	r, err := regexp.Compile(value.StringValue())
	if err != nil {
		return nil
	}
	return r
}

func parseSemVer(value ldvalue.Value) (semver.Version, bool) {
	if !value.IsString() {
		return semver.Version{}, false
	}
	sv, err := semver.ParseAs(value.StringValue(), semver.ParseModeAllowMissingMinorAndPatch)
	if err != nil {
		return semver.Version{}, false
	}
	return sv, true
}
