package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
)

// clauseMatches reports whether a single clause matches the user being evaluated, including
// negation and the segmentMatch special case. state carries the segment lookup and cycle-guard
// stack that segmentMatch clauses need.
func clauseMatches(state *evalState, clause *ldmodel.Clause) bool {
	var matched bool
	if clause.Op == ldmodel.OperatorSegmentMatch {
		matched = matchesAnySegment(state, clause.Values)
	} else {
		matched = matchesAttribute(state, clause)
	}
	if clause.Negate {
		return !matched
	}
	return matched
}

// matchesAttribute resolves the clause's attribute from the user and checks it against the
// clause's operator and values. When the attribute value is a JSON array, the clause matches if
// any element of the array matches (an OR across both the array and the clause's value list).
func matchesAttribute(state *evalState, clause *ldmodel.Clause) bool {
	attrValue, ok := state.user.ValueOf(clause.Attribute)
	if !ok {
		return false
	}

	if attrValue.Type() == ldvalue.ArrayType {
		for i := 0; i < attrValue.Count(); i++ {
			if clauseMatchesValue(clause, attrValue.GetByIndex(i)) {
				return true
			}
		}
		return false
	}

	return clauseMatchesValue(clause, attrValue)
}

// matchesAnySegment reports whether the user is a member of any segment named in values (a
// segmentMatch clause's values are segment keys, not ordinary comparison operands).
func matchesAnySegment(state *evalState, values []ldvalue.Value) bool {
	for _, v := range values {
		if !v.IsString() {
			continue
		}
		if segmentContains(state, v.StringValue()) {
			return true
		}
	}
	return false
}
