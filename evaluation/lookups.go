package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
)

// FlagLookup resolves a flag key to its current definition. Implementations back this with
// whatever storage holds flag state; a missing key returns ok=false, never an error.
type FlagLookup interface {
	GetFlag(key string) (ldmodel.FeatureFlag, bool)
}

// SegmentLookup resolves a segment key to its current definition, analogous to FlagLookup.
type SegmentLookup interface {
	GetSegment(key string) (ldmodel.Segment, bool)
}

// BigSegmentMembership answers membership queries for one user against the big (unbounded)
// segment store snapshot that was fetched for it. A nil *bool return means the store has no
// record either way; segment.go then treats the user as not included, since unbounded segments
// are never matched by rules.
type BigSegmentMembership interface {
	// CheckMembership reports whether segmentKey explicitly includes or excludes the user this
	// membership value was fetched for. A nil result means no explicit record exists.
	CheckMembership(segmentKey string) *bool
}

// BigSegmentLookup fetches the big-segment membership snapshot for a user, plus the health of the
// underlying store at the time of the fetch. Implementations should cache aggressively: this is
// called at most once per evaluation, regardless of how many unbounded segments it references.
type BigSegmentLookup interface {
	GetBigSegmentMembership(userKey string) (BigSegmentMembership, ldreason.BigSegmentsStatus)
}

// FlagLookupFunc adapts a plain function to FlagLookup.
type FlagLookupFunc func(key string) (ldmodel.FeatureFlag, bool)

// GetFlag implements FlagLookup.
func (f FlagLookupFunc) GetFlag(key string) (ldmodel.FeatureFlag, bool) { return f(key) }

// SegmentLookupFunc adapts a plain function to SegmentLookup.
type SegmentLookupFunc func(key string) (ldmodel.Segment, bool)

// GetSegment implements SegmentLookup.
func (f SegmentLookupFunc) GetSegment(key string) (ldmodel.Segment, bool) { return f(key) }
