package ldmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

func TestFlagRoundTripsThroughJSON(t *testing.T) {
	original := FeatureFlag{
		Key:     "flag-key",
		Version: 3,
		On:      true,
		Prerequisites: []Prerequisite{
			{Key: "other-flag", Variation: 1},
		},
		Targets: []Target{
			{Values: []string{"user1", "user2"}, Variation: 0},
		},
		Rules: []FlagRule{
			{
				ID: "rule1",
				Clauses: []Clause{
					{Attribute: "country", Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("fr")}},
				},
				VariationOrRollout: VariationOrRollout{Variation: ldvalue.NewOptionalInt(1)},
				TrackEvents:        true,
			},
		},
		Fallthrough: VariationOrRollout{
			Rollout: Rollout{
				Kind: RolloutKindExperiment,
				Variations: []WeightedVariation{
					{Variation: 0, Weight: 50000},
					{Variation: 1, Weight: 50000, Untracked: true},
				},
				Seed: ldvalue.NewOptionalInt(42),
			},
		},
		OffVariation: ldvalue.NewOptionalInt(0),
		Variations:   []ldvalue.Value{ldvalue.String("a"), ldvalue.String("b")},
		Salt:         "salty",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded FeatureFlag
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, original.Key, decoded.Key)
	assert.Equal(t, original.Version, decoded.Version)
	assert.Equal(t, original.On, decoded.On)
	require.Len(t, decoded.Prerequisites, 1)
	assert.Equal(t, original.Prerequisites[0].Key, decoded.Prerequisites[0].Key)
	assert.Equal(t, original.Prerequisites[0].Variation, decoded.Prerequisites[0].Variation)
	assert.Equal(t, original.Targets[0].Values, decoded.Targets[0].Values)
	assert.Equal(t, original.Rules[0].Clauses[0].Attribute, decoded.Rules[0].Clauses[0].Attribute)
	assert.Equal(t, original.Fallthrough.Rollout.Kind, decoded.Fallthrough.Rollout.Kind)
	assert.Equal(t, original.Fallthrough.Rollout.Seed, decoded.Fallthrough.Rollout.Seed)
	assert.Equal(t, original.Variations, decoded.Variations)
	assert.Equal(t, original.Salt, decoded.Salt)
}

func TestSegmentRoundTripsThroughJSON(t *testing.T) {
	original := Segment{
		Key:       "segment-key",
		Version:   2,
		Included:  []string{"a"},
		Excluded:  []string{"b"},
		Salt:      "abcdef",
		Unbounded: true,
		Rules: []SegmentRule{
			{
				ID:       "rule1",
				Clauses:  []Clause{{Attribute: "email", Op: OperatorEndsWith, Values: []ldvalue.Value{ldvalue.String("example.com")}}},
				Weight:   ldvalue.NewOptionalInt(50000),
				BucketBy: "email",
			},
		},
		Generation: ldvalue.NewOptionalInt(7),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Segment
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, original.Key, decoded.Key)
	assert.Equal(t, original.Included, decoded.Included)
	assert.Equal(t, original.Excluded, decoded.Excluded)
	assert.Equal(t, original.Unbounded, decoded.Unbounded)
	assert.Equal(t, original.Generation, decoded.Generation)
	assert.Equal(t, original.Rules[0].Weight, decoded.Rules[0].Weight)
	assert.Equal(t, original.Rules[0].BucketBy, decoded.Rules[0].BucketBy)
}

func TestUnmarshalFlagRunsPreprocessing(t *testing.T) {
	data := []byte(`{
		"key": "flag-key", "on": true,
		"rules": [{"id": "r1", "variation": 0, "clauses": []}]
	}`)

	flag, err := UnmarshalFlag(data)
	require.NoError(t, err)

	assert.True(t, flag.preprocessed.offReason.IsDefined())
	assert.True(t, flag.Rules[0].preprocessed.matchReason.IsDefined())
}

func TestUnmarshalFlagWithSkipPreprocessingStillEvaluatesCorrectly(t *testing.T) {
	data := []byte(`{
		"key": "flag-key", "on": true,
		"targets": [{"variation": 0, "values": ["a", "b"]}],
		"rules": [{"id": "r1", "variation": 0, "clauses": [
			{"attribute": "country", "op": "in", "values": ["fr", "de"]}
		]}]
	}`)

	flag, err := UnmarshalFlag(data, SkipPreprocessing())
	require.NoError(t, err)

	// Every accessor must fall back to computing fresh rather than relying on interned state.
	assert.True(t, flag.OffReason().IsDefined())
	assert.True(t, flag.Rules[0].RuleMatchReason(0).IsDefined())
	assert.True(t, flag.Targets[0].ContainsKey("b"))
	assert.True(t, flag.Rules[0].Clauses[0].MatchesIn(ldvalue.String("de")))
}

func TestPreprocessFlagBuildsTargetLookupSet(t *testing.T) {
	flag := FeatureFlag{
		Targets: []Target{{Values: []string{"a", "b", "c"}, Variation: 0}},
	}
	PreprocessFlag(&flag)

	assert.True(t, flag.Targets[0].ContainsKey("b"))
	assert.False(t, flag.Targets[0].ContainsKey("z"))
}

func TestPreprocessSegmentBuildsIncludeExcludeSets(t *testing.T) {
	segment := Segment{Included: []string{"a"}, Excluded: []string{"b"}}
	PreprocessSegment(&segment)

	assert.True(t, segment.Includes("a"))
	assert.False(t, segment.Includes("b"))
	assert.True(t, segment.Excludes("b"))
	assert.False(t, segment.Excludes("a"))
}

func TestClauseMatchesInUsesPreprocessedLookupSetForMultipleValues(t *testing.T) {
	clause := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("a"), ldvalue.String("b"), ldvalue.String("c")}}
	flag := FeatureFlag{Rules: []FlagRule{{Clauses: []Clause{clause}}}}
	PreprocessFlag(&flag)

	preprocessedClause := &flag.Rules[0].Clauses[0]
	assert.True(t, preprocessedClause.MatchesIn(ldvalue.String("b")))
	assert.False(t, preprocessedClause.MatchesIn(ldvalue.String("z")))
}

func TestClauseMatchesInFallsBackWithoutPreprocessing(t *testing.T) {
	clause := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("a"), ldvalue.String("b")}}
	assert.True(t, clause.MatchesIn(ldvalue.String("a")))
	assert.False(t, clause.MatchesIn(ldvalue.String("z")))
}

func TestPreprocessedValuesCompileRegexpsOnce(t *testing.T) {
	clause := Clause{Op: OperatorMatches, Values: []ldvalue.Value{ldvalue.String("^abc"), ldvalue.String("[invalid")}}
	flag := FeatureFlag{Rules: []FlagRule{{Clauses: []Clause{clause}}}}
	PreprocessFlag(&flag)

	values := flag.Rules[0].Clauses[0].PreprocessedValues()
	require.Len(t, values, 2)
	assert.True(t, values[0].Valid())
	assert.NotNil(t, values[0].Regexp())
	assert.False(t, values[1].Valid(), "an invalid regexp pattern must never match, not error")
}

func TestVariationOrRolloutIsZero(t *testing.T) {
	assert.True(t, VariationOrRollout{}.IsZero())
	assert.False(t, VariationOrRollout{Variation: ldvalue.NewOptionalInt(0)}.IsZero())
	assert.False(t, VariationOrRollout{Rollout: Rollout{Variations: []WeightedVariation{{Variation: 0, Weight: 100000}}}}.IsZero())
}

func TestRolloutIsExperiment(t *testing.T) {
	assert.True(t, Rollout{Kind: RolloutKindExperiment}.IsExperiment())
	assert.False(t, Rollout{Kind: RolloutKindRollout}.IsExperiment())
	assert.False(t, Rollout{}.IsExperiment())
}
