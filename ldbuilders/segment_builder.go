package ldbuilders

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
)

// SegmentBuilder provides a builder pattern for ldmodel.Segment.
type SegmentBuilder struct {
	segment ldmodel.Segment
}

// SegmentRuleBuilder provides a builder pattern for ldmodel.SegmentRule.
type SegmentRuleBuilder struct {
	rule ldmodel.SegmentRule
}

// NewSegmentBuilder creates a SegmentBuilder for a segment with the given key.
func NewSegmentBuilder(key string) *SegmentBuilder {
	return &SegmentBuilder{segment: ldmodel.Segment{Key: key}}
}

// Build returns the configured Segment, preprocessed and ready to evaluate.
func (b *SegmentBuilder) Build() ldmodel.Segment {
	s := b.segment
	ldmodel.PreprocessSegment(&s)
	return s
}

// AddRule adds an inclusion rule to the segment.
func (b *SegmentBuilder) AddRule(r *SegmentRuleBuilder) *SegmentBuilder {
	b.segment.Rules = append(b.segment.Rules, r.Build())
	return b
}

// Excluded sets the segment's excluded-keys list.
func (b *SegmentBuilder) Excluded(keys ...string) *SegmentBuilder {
	b.segment.Excluded = keys
	return b
}

// Included sets the segment's included-keys list.
func (b *SegmentBuilder) Included(keys ...string) *SegmentBuilder {
	b.segment.Included = keys
	return b
}

// Unbounded marks the segment as an unbounded (big) segment.
func (b *SegmentBuilder) Unbounded(value bool) *SegmentBuilder {
	b.segment.Unbounded = value
	return b
}

// Generation sets the segment's generation number, used to invalidate stale big-segment state.
func (b *SegmentBuilder) Generation(value int) *SegmentBuilder {
	b.segment.Generation = ldvalue.NewOptionalInt(value)
	return b
}

// Version sets the segment's version.
func (b *SegmentBuilder) Version(value int) *SegmentBuilder {
	b.segment.Version = value
	return b
}

// Salt sets the segment's bucketing salt.
func (b *SegmentBuilder) Salt(value string) *SegmentBuilder {
	b.segment.Salt = value
	return b
}

// NewSegmentRuleBuilder creates a SegmentRuleBuilder.
func NewSegmentRuleBuilder() *SegmentRuleBuilder {
	return &SegmentRuleBuilder{}
}

// Build returns the configured SegmentRule.
func (b *SegmentRuleBuilder) Build() ldmodel.SegmentRule {
	return b.rule
}

// BucketBy sets the attribute the rule's weighted check (if any) buckets by.
func (b *SegmentRuleBuilder) BucketBy(attribute string) *SegmentRuleBuilder {
	b.rule.BucketBy = attribute
	return b
}

// Clauses sets the rule's clauses, all of which must match for the rule to apply.
func (b *SegmentRuleBuilder) Clauses(clauses ...ldmodel.Clause) *SegmentRuleBuilder {
	b.rule.Clauses = clauses
	return b
}

// ID sets the rule's ID.
func (b *SegmentRuleBuilder) ID(id string) *SegmentRuleBuilder {
	b.rule.ID = id
	return b
}

// Weight sets the rule's weighted-inclusion percentage, in parts per 100,000. A value <= 0 clears
// it, making the rule match unconditionally once its clauses match.
func (b *SegmentRuleBuilder) Weight(value int) *SegmentRuleBuilder {
	if value <= 0 {
		b.rule.Weight = ldvalue.OptionalInt{}
	} else {
		b.rule.Weight = ldvalue.NewOptionalInt(value)
	}
	return b
}
