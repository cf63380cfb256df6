package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldbuilders"
	"github.com/launchdarkly/go-evaluator-core/ldmodel"
	"github.com/launchdarkly/go-evaluator-core/lduser"
)

func TestExplicitIncludeUser(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("test").Included("foo").Salt("abcdef").Build()
	state := &evalState{user: lduser.NewUser("foo"), segments: fakeSegmentLookup{"test": segment}}
	assert.True(t, segmentContains(state, "test"))
}

func TestExplicitExcludeUser(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("test").Excluded("foo").Salt("abcdef").Build()
	state := &evalState{user: lduser.NewUser("foo"), segments: fakeSegmentLookup{"test": segment}}
	assert.False(t, segmentContains(state, "test"))
}

func TestExplicitExcludeHasPrecedenceOverInclude(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("test").Included("foo").Excluded("foo").Salt("abcdef").Build()
	state := &evalState{user: lduser.NewUser("foo"), segments: fakeSegmentLookup{"test": segment}}
	assert.False(t, segmentContains(state, "test"))
}

func TestMatchingRuleWithFullRollout(t *testing.T) {
	rule := ldbuilders.NewSegmentRuleBuilder().
		Clauses(ldbuilders.Clause("email", ldmodel.OperatorIn, ldvalue.String("test@example.com"))).
		Weight(100000)
	segment := ldbuilders.NewSegmentBuilder("test").Salt("abcdef").AddRule(rule).Build()

	user := lduser.NewUserBuilder("foo").Email("test@example.com").Build()
	state := &evalState{user: user, segments: fakeSegmentLookup{"test": segment}}
	assert.True(t, segmentContains(state, "test"))
}

func TestMatchingRuleWithZeroRollout(t *testing.T) {
	// Weight must be an explicit zero, not "unset" (the builder treats <= 0 as clearing the
	// weight entirely, which would make the rule match unconditionally instead of gating at 0%).
	rule := ldmodel.SegmentRule{
		Clauses: []ldmodel.Clause{ldbuilders.Clause("email", ldmodel.OperatorIn, ldvalue.String("test@example.com"))},
		Weight:  ldvalue.NewOptionalInt(0),
	}
	segment := ldmodel.Segment{Key: "test", Salt: "abcdef", Rules: []ldmodel.SegmentRule{rule}}
	ldmodel.PreprocessSegment(&segment)

	user := lduser.NewUserBuilder("foo").Email("test@example.com").Build()
	state := &evalState{user: user, segments: fakeSegmentLookup{"test": segment}}
	assert.False(t, segmentContains(state, "test"))
}

func TestNonMatchingClauseInRulePreventsMatch(t *testing.T) {
	rule := ldbuilders.NewSegmentRuleBuilder().
		Clauses(ldbuilders.Clause("email", ldmodel.OperatorIn, ldvalue.String("nope@example.com"))).
		Weight(100000)
	segment := ldbuilders.NewSegmentBuilder("test").Salt("abcdef").AddRule(rule).Build()

	user := lduser.NewUserBuilder("foo").Email("test@example.com").Build()
	state := &evalState{user: user, segments: fakeSegmentLookup{"test": segment}}
	assert.False(t, segmentContains(state, "test"))
}

func TestUnknownSegmentDoesNotMatch(t *testing.T) {
	state := &evalState{user: lduser.NewUser("foo"), segments: fakeSegmentLookup{}}
	assert.False(t, segmentContains(state, "missing"))
}

func TestDeletedSegmentDoesNotMatch(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("test").Included("foo").Build()
	segment.Deleted = true
	state := &evalState{user: lduser.NewUser("foo"), segments: fakeSegmentLookup{"test": segment}}
	assert.False(t, segmentContains(state, "test"))
}

func TestSegmentReferenceCycleIsNotAMatch(t *testing.T) {
	ruleA := ldbuilders.NewSegmentRuleBuilder().Clauses(ldbuilders.SegmentMatchClause("b"))
	segmentA := ldbuilders.NewSegmentBuilder("a").AddRule(ruleA).Build()

	ruleB := ldbuilders.NewSegmentRuleBuilder().Clauses(ldbuilders.SegmentMatchClause("a"))
	segmentB := ldbuilders.NewSegmentBuilder("b").AddRule(ruleB).Build()

	state := &evalState{
		user:     lduser.NewUser("foo"),
		segments: fakeSegmentLookup{"a": segmentA, "b": segmentB},
	}
	assert.False(t, segmentContains(state, "a"))
}

type fakeBigSegmentStore struct {
	membership map[string]bool
	status     ldreason.BigSegmentsStatus
}

func (f fakeBigSegmentStore) GetBigSegmentMembership(userKey string) (BigSegmentMembership, ldreason.BigSegmentsStatus) {
	return fakeBigSegmentMembership(f.membership), f.status
}

type fakeBigSegmentMembership map[string]bool

func (f fakeBigSegmentMembership) CheckMembership(segmentKey string) *bool {
	v, ok := f[segmentKey]
	if !ok {
		return nil
	}
	return &v
}

func TestUnboundedSegmentConsultsBigSegmentStore(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("big").Unbounded(true).Build()
	store := fakeBigSegmentStore{membership: map[string]bool{"big": true}, status: ldreason.BigSegmentsHealthy}

	state := &evalState{
		user:        lduser.NewUser("foo"),
		segments:    fakeSegmentLookup{"big": segment},
		bigSegments: store,
	}
	assert.True(t, segmentContains(state, "big"))
	assert.Equal(t, ldreason.BigSegmentsHealthy, state.bigSegmentsStatus)
}

func TestUnboundedSegmentWithNoStoreConfiguredIsNotConfigured(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("big").Unbounded(true).Build()

	state := &evalState{
		user:     lduser.NewUser("foo"),
		segments: fakeSegmentLookup{"big": segment},
	}
	assert.False(t, segmentContains(state, "big"))
	assert.Equal(t, ldreason.BigSegmentsNotConfigured, state.bigSegmentsStatus)
}

func TestWorstBigSegmentsStatusWins(t *testing.T) {
	state := &evalState{}
	state.noteBigSegmentsStatus(ldreason.BigSegmentsHealthy)
	state.noteBigSegmentsStatus(ldreason.BigSegmentsStale)
	assert.Equal(t, ldreason.BigSegmentsStale, state.bigSegmentsStatus)

	state.noteBigSegmentsStatus(ldreason.BigSegmentsHealthy)
	assert.Equal(t, ldreason.BigSegmentsStale, state.bigSegmentsStatus, "a better status must not overwrite a worse one")

	state.noteBigSegmentsStatus(ldreason.BigSegmentsStoreError)
	assert.Equal(t, ldreason.BigSegmentsStoreError, state.bigSegmentsStatus)
}
