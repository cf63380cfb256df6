package evaluation

import (
	"strings"
	"time"

	"github.com/launchdarkly/go-semver"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
)

// clauseMatchesValue reports whether a single resolved attribute value satisfies clause under its
// operator, OR'd across the clause's value list. It does not apply negation or segmentMatch
// dispatch - see clause.go for both.
func clauseMatchesValue(clause *ldmodel.Clause, attrValue ldvalue.Value) bool {
	if clause.Op == ldmodel.OperatorIn {
		return clause.MatchesIn(attrValue)
	}

	aux := clause.PreprocessedValues()
	for i, clauseValue := range clause.Values {
		var parsed ldmodel.ClauseValue
		if i < len(aux) {
			parsed = aux[i]
		}
		if applyOperator(clause.Op, attrValue, clauseValue, parsed) {
			return true
		}
	}
	return false
}

func applyOperator(op ldmodel.Operator, attrValue, clauseValue ldvalue.Value, aux ldmodel.ClauseValue) bool {
	switch op {
	case ldmodel.OperatorStartsWith:
		return stringOp(attrValue, clauseValue, strings.HasPrefix)
	case ldmodel.OperatorEndsWith:
		return stringOp(attrValue, clauseValue, strings.HasSuffix)
	case ldmodel.OperatorContains:
		return stringOp(attrValue, clauseValue, strings.Contains)
	case ldmodel.OperatorMatches:
		return matchesOp(attrValue, aux)
	case ldmodel.OperatorLessThan:
		return numericOp(attrValue, clauseValue, func(a, b float64) bool { return a < b })
	case ldmodel.OperatorLessThanOrEqual:
		return numericOp(attrValue, clauseValue, func(a, b float64) bool { return a <= b })
	case ldmodel.OperatorGreaterThan:
		return numericOp(attrValue, clauseValue, func(a, b float64) bool { return a > b })
	case ldmodel.OperatorGreaterThanOrEqual:
		return numericOp(attrValue, clauseValue, func(a, b float64) bool { return a >= b })
	case ldmodel.OperatorBefore:
		return dateOp(attrValue, aux, func(a, b time.Time) bool { return a.Before(b) })
	case ldmodel.OperatorAfter:
		return dateOp(attrValue, aux, func(a, b time.Time) bool { return a.After(b) })
	case ldmodel.OperatorSemVerEqual:
		return semVerOp(attrValue, aux, func(c int) bool { return c == 0 })
	case ldmodel.OperatorSemVerLessThan:
		return semVerOp(attrValue, aux, func(c int) bool { return c < 0 })
	case ldmodel.OperatorSemVerGreaterThan:
		return semVerOp(attrValue, aux, func(c int) bool { return c > 0 })
	default:
		// Unrecognized operator (including segmentMatch, which clause.go dispatches separately, and
		// any operator string a newer wire format might introduce): never an error, always a
		// non-match, so evaluation degrades gracefully instead of failing the whole flag.
		return false
	}
}

func stringOp(attrValue, clauseValue ldvalue.Value, fn func(s, prefix string) bool) bool {
	if !attrValue.IsString() || !clauseValue.IsString() {
		return false
	}
	return fn(attrValue.StringValue(), clauseValue.StringValue())
}

func matchesOp(attrValue ldvalue.Value, aux ldmodel.ClauseValue) bool {
	if !attrValue.IsString() || !aux.Valid() || aux.Regexp() == nil {
		return false
	}
	return aux.Regexp().MatchString(attrValue.StringValue())
}

func numericOp(attrValue, clauseValue ldvalue.Value, cmp func(a, b float64) bool) bool {
	if attrValue.Type() != ldvalue.NumberType || clauseValue.Type() != ldvalue.NumberType {
		return false
	}
	return cmp(attrValue.Float64Value(), clauseValue.Float64Value())
}

func dateOp(attrValue ldvalue.Value, aux ldmodel.ClauseValue, cmp func(a, b time.Time) bool) bool {
	if !aux.Valid() {
		return false
	}
	attrTime, ok := parseAttributeDateTime(attrValue)
	if !ok {
		return false
	}
	return cmp(attrTime, aux.Time())
}

func semVerOp(attrValue ldvalue.Value, aux ldmodel.ClauseValue, test func(comparison int) bool) bool {
	if !aux.Valid() || !attrValue.IsString() {
		return false
	}
	attrSemver, err := semver.ParseAs(attrValue.StringValue(), semver.ParseModeAllowMissingMinorAndPatch)
	if err != nil {
		return false
	}
	return test(attrSemver.ComparePrecedence(aux.SemVer()))
}

func parseAttributeDateTime(value ldvalue.Value) (time.Time, bool) {
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
