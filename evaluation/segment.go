package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
	"github.com/launchdarkly/go-evaluator-core/lduser"
)

// evalState carries the per-evaluation context that clause and segment matching need: the user
// being evaluated, lookups for segments and big-segment membership, a cycle-detection stack for
// segmentMatch clauses that reference segments recursively, and the running worst-status tracker
// for any unbounded segments consulted along the way.
type evalState struct {
	user        lduser.User
	segments    SegmentLookup
	bigSegments BigSegmentLookup

	segmentStack []string

	bigSegmentsMembership BigSegmentMembership
	bigSegmentsFetched    bool
	bigSegmentsStatus     ldreason.BigSegmentsStatus
	bigSegmentsStatusSet  bool
}

// noteBigSegmentsStatus folds status into the worst-status-wins reducer used to populate the
// final result's big-segments status, should the flag's targeting reference any unbounded segment.
func (s *evalState) noteBigSegmentsStatus(status ldreason.BigSegmentsStatus) {
	if !s.bigSegmentsStatusSet || bigSegmentsStatusRank(status) > bigSegmentsStatusRank(s.bigSegmentsStatus) {
		s.bigSegmentsStatus = status
		s.bigSegmentsStatusSet = true
	}
}

func bigSegmentsStatusRank(status ldreason.BigSegmentsStatus) int {
	switch status {
	case ldreason.BigSegmentsHealthy:
		return 0
	case ldreason.BigSegmentsStale:
		return 1
	case ldreason.BigSegmentsStoreError:
		return 2
	case ldreason.BigSegmentsNotConfigured:
		return 3
	default:
		return 3
	}
}

// membership lazily fetches the user's big-segment membership snapshot, at most once per
// evaluation regardless of how many unbounded segments reference it.
func (s *evalState) membership() (BigSegmentMembership, bool) {
	if s.bigSegmentsFetched {
		return s.bigSegmentsMembership, s.bigSegmentsMembership != nil
	}
	s.bigSegmentsFetched = true
	if s.bigSegments == nil {
		s.noteBigSegmentsStatus(ldreason.BigSegmentsNotConfigured)
		return nil, false
	}
	m, status := s.bigSegments.GetBigSegmentMembership(s.user.GetKey())
	s.bigSegmentsMembership = m
	s.noteBigSegmentsStatus(status)
	return m, m != nil
}

// segmentContains reports whether the user is a member of the named segment, applying the
// excluded -> included -> rules precedence (and, for unbounded segments, a big-segment store
// lookup in place of rules). A reference cycle through nested segmentMatch clauses is treated as
// non-matching rather than as an error.
func segmentContains(state *evalState, key string) bool {
	for _, visited := range state.segmentStack {
		if visited == key {
			return false
		}
	}

	segment, ok := state.segments.GetSegment(key)
	if !ok || segment.Deleted {
		return false
	}

	if segment.Excludes(state.user.GetKey()) {
		return false
	}
	if segment.Includes(state.user.GetKey()) {
		return true
	}

	state.segmentStack = append(state.segmentStack, key)
	defer func() { state.segmentStack = state.segmentStack[:len(state.segmentStack)-1] }()

	if segment.Unbounded {
		return unboundedSegmentContains(state, segment)
	}

	for i := range segment.Rules {
		if segmentRuleMatches(state, &segment.Rules[i], segment.Key, segment.Salt) {
			return true
		}
	}
	return false
}

// unboundedSegmentContains consults the big-segment store snapshot instead of rules. A store that
// has no record for this segment+user pair (CheckMembership returns nil, or no membership value
// is available at all) is treated as not-included, matching the bounded-segment default.
func unboundedSegmentContains(state *evalState, segment ldmodel.Segment) bool {
	membership, ok := state.membership()
	if !ok {
		return false
	}
	if included := membership.CheckMembership(segment.Key); included != nil {
		return *included
	}
	return false
}

// segmentRuleMatches reports whether every clause in the rule matches, and, if the rule carries a
// weight, whether the user's bucket falls within it. A rule with no weight matches unconditionally
// once its clauses do.
func segmentRuleMatches(state *evalState, rule *ldmodel.SegmentRule, segmentKey string, salt string) bool {
	for i := range rule.Clauses {
		if !clauseMatches(state, &rule.Clauses[i]) {
			return false
		}
	}

	weight, hasWeight := rule.Weight.Get()
	if !hasWeight {
		return true
	}

	bucketBy := rule.BucketBy
	if bucketBy == "" {
		bucketBy = "key"
	}
	bucket := bucketUser(state.user, segmentKey, bucketBy, salt, ldvalue.OptionalInt{})
	return bucket < float64(weight)/100000.0
}
