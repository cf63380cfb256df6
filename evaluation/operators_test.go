package evaluation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldbuilders"
	"github.com/launchdarkly/go-evaluator-core/ldmodel"
)

const dateStr1 = "2017-12-06T00:00:00.000-07:00"
const dateStr2 = "2017-12-06T00:01:01.000-07:00"
const dateMs1 = 10000000
const dateMs2 = 10000001
const invalidDate = "hey what's this?"

type opTestInfo struct {
	opName      ldmodel.Operator
	userValue   ldvalue.Value
	clauseValue ldvalue.Value
	expected    bool
}

var operatorTests = []opTestInfo{
	// numeric operators
	{ldmodel.OperatorIn, ldvalue.Int(99), ldvalue.Int(99), true},
	{ldmodel.OperatorIn, ldvalue.Float64(99.0001), ldvalue.Float64(99.0001), true},
	{ldmodel.OperatorLessThan, ldvalue.Int(1), ldvalue.Float64(1.99999), true},
	{ldmodel.OperatorLessThan, ldvalue.Float64(1.99999), ldvalue.Int(1), false},
	{ldmodel.OperatorLessThanOrEqual, ldvalue.Int(1), ldvalue.Float64(1), true},
	{ldmodel.OperatorGreaterThan, ldvalue.Int(2), ldvalue.Float64(1.99999), true},
	{ldmodel.OperatorGreaterThan, ldvalue.Float64(1.99999), ldvalue.Int(2), false},
	{ldmodel.OperatorGreaterThanOrEqual, ldvalue.Int(1), ldvalue.Float64(1), true},

	// string operators
	{ldmodel.OperatorIn, ldvalue.String("x"), ldvalue.String("x"), true},
	{ldmodel.OperatorIn, ldvalue.String("x"), ldvalue.String("xyz"), false},
	{ldmodel.OperatorStartsWith, ldvalue.String("xyz"), ldvalue.String("x"), true},
	{ldmodel.OperatorStartsWith, ldvalue.String("x"), ldvalue.String("xyz"), false},
	{ldmodel.OperatorEndsWith, ldvalue.String("xyz"), ldvalue.String("z"), true},
	{ldmodel.OperatorEndsWith, ldvalue.String("z"), ldvalue.String("xyz"), false},
	{ldmodel.OperatorContains, ldvalue.String("xyz"), ldvalue.String("y"), true},
	{ldmodel.OperatorContains, ldvalue.String("y"), ldvalue.String("xyz"), false},

	// mixed strings and numbers never match
	{ldmodel.OperatorIn, ldvalue.String("99"), ldvalue.Int(99), false},
	{ldmodel.OperatorIn, ldvalue.Int(99), ldvalue.String("99"), false},
	{ldmodel.OperatorContains, ldvalue.String("99"), ldvalue.Int(99), false},
	{ldmodel.OperatorStartsWith, ldvalue.String("99"), ldvalue.Int(99), false},
	{ldmodel.OperatorLessThanOrEqual, ldvalue.String("99"), ldvalue.Int(99), false},
	{ldmodel.OperatorGreaterThanOrEqual, ldvalue.Int(99), ldvalue.String("99"), false},

	// regex
	{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("hello.*rld"), true},
	{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("l+"), true},
	{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("(world|planet)"), true},
	{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("aloha"), false},
	{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("***bad regex"), false},

	// date operators
	{ldmodel.OperatorBefore, ldvalue.String(dateStr1), ldvalue.String(dateStr2), true},
	{ldmodel.OperatorBefore, ldvalue.Int(dateMs1), ldvalue.Int(dateMs2), true},
	{ldmodel.OperatorBefore, ldvalue.String(dateStr2), ldvalue.String(dateStr1), false},
	{ldmodel.OperatorBefore, ldvalue.String(dateStr1), ldvalue.String(dateStr1), false},
	{ldmodel.OperatorBefore, ldvalue.Null(), ldvalue.String(dateStr1), false},
	{ldmodel.OperatorBefore, ldvalue.String(dateStr1), ldvalue.String(invalidDate), false},
	{ldmodel.OperatorAfter, ldvalue.String(dateStr2), ldvalue.String(dateStr1), true},
	{ldmodel.OperatorAfter, ldvalue.Int(dateMs2), ldvalue.Int(dateMs1), true},
	{ldmodel.OperatorAfter, ldvalue.String(dateStr1), ldvalue.String(dateStr2), false},
	{ldmodel.OperatorAfter, ldvalue.String(dateStr1), ldvalue.String(dateStr1), false},

	// semver operators
	{ldmodel.OperatorSemVerEqual, ldvalue.String("2.0.0"), ldvalue.String("2.0.0"), true},
	{ldmodel.OperatorSemVerEqual, ldvalue.String("2.0"), ldvalue.String("2.0.0"), true},
	{ldmodel.OperatorSemVerEqual, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), false},
	{ldmodel.OperatorSemVerLessThan, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), true},
	{ldmodel.OperatorSemVerLessThan, ldvalue.String("2.0.1"), ldvalue.String("2.0.0"), false},
	{ldmodel.OperatorSemVerLessThan, ldvalue.String("2.0.1"), ldvalue.String("xbad%ver"), false},
	{ldmodel.OperatorSemVerGreaterThan, ldvalue.String("2.0.1"), ldvalue.String("2.0"), true},
	{ldmodel.OperatorSemVerGreaterThan, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), false},

	// unrecognized operator always returns false, never an error
	{ldmodel.Operator("somethingNewAndUnknown"), ldvalue.String("x"), ldvalue.String("x"), false},
}

func TestOperatorDispatch(t *testing.T) {
	for _, tt := range operatorTests {
		tt := tt
		t.Run(fmt.Sprintf("%v %s %v should be %v", tt.userValue, tt.opName, tt.clauseValue, tt.expected), func(t *testing.T) {
			clause := ldbuilders.Clause("attr", tt.opName, tt.clauseValue)
			assert.Equal(t, tt.expected, clauseMatchesValue(&clause, tt.userValue))
		})
	}
}

func TestParseAttributeDateTime(t *testing.T) {
	expectedTimeStamp := "2016-04-16T22:57:31.684Z"
	expected, err := time.Parse(time.RFC3339Nano, expectedTimeStamp)
	assert.NoError(t, err)

	actual, ok := parseAttributeDateTime(ldvalue.Int(1460847451684))
	assert.True(t, ok)
	assert.True(t, actual.Equal(expected))

	actual, ok = parseAttributeDateTime(ldvalue.String(expectedTimeStamp))
	assert.True(t, ok)
	assert.True(t, actual.Equal(expected))

	_, ok = parseAttributeDateTime(ldvalue.Bool(true))
	assert.False(t, ok)
}

// TestOperatorDispatchAfterPreprocessing exercises the same predicates against a clause that went
// through PreprocessFlag, so the compiled-regex/parsed-date/parsed-semver auxiliary path is
// covered, not just the on-demand fallback.
func TestOperatorDispatchAfterPreprocessing(t *testing.T) {
	cases := []opTestInfo{
		{ldmodel.OperatorMatches, ldvalue.String("hello world"), ldvalue.String("l+"), true},
		{ldmodel.OperatorBefore, ldvalue.String(dateStr1), ldvalue.String(dateStr2), true},
		{ldmodel.OperatorSemVerGreaterThan, ldvalue.String("2.0.1"), ldvalue.String("2.0"), true},
	}
	for _, tt := range cases {
		flag := ldmodel.FeatureFlag{
			Rules: []ldmodel.FlagRule{{Clauses: []ldmodel.Clause{
				ldbuilders.Clause("attr", tt.opName, tt.clauseValue),
			}}},
		}
		ldmodel.PreprocessFlag(&flag)
		assert.Equal(t, tt.expected, clauseMatchesValue(&flag.Rules[0].Clauses[0], tt.userValue))
	}
}
