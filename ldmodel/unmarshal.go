package ldmodel

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"

	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// UnmarshalOption configures UnmarshalFlag/UnmarshalSegment.
type UnmarshalOption interface {
	apply(*unmarshalOptions)
}

type unmarshalOptions struct {
	skipPreprocessing bool
}

type unmarshalOptionFunc func(*unmarshalOptions)

func (f unmarshalOptionFunc) apply(o *unmarshalOptions) { f(o) }

// SkipPreprocessing decodes a flag or segment without running Preprocess* on it, so callers can
// exercise the on-demand-fallback path (every accessor still works, just without the interned
// artifacts) instead of the steady-state preprocessed one.
func SkipPreprocessing() UnmarshalOption {
	return unmarshalOptionFunc(func(o *unmarshalOptions) { o.skipPreprocessing = true })
}

// UnmarshalFlag decodes a FeatureFlag from its wire JSON form and runs PreprocessFlag on it,
// unless SkipPreprocessing is given.
func UnmarshalFlag(data []byte, opts ...UnmarshalOption) (FeatureFlag, error) {
	var o unmarshalOptions
	for _, opt := range opts {
		opt.apply(&o)
	}

	r := jreader.NewReader(data)
	var flag FeatureFlag
	readFlag(&r, &flag)
	if err := r.Error(); err != nil {
		return FeatureFlag{}, jreader.ToJSONError(err, &flag)
	}
	if !o.skipPreprocessing {
		PreprocessFlag(&flag)
	}
	return flag, nil
}

// UnmarshalSegment decodes a Segment from its wire JSON form and runs PreprocessSegment on it,
// unless SkipPreprocessing is given.
func UnmarshalSegment(data []byte, opts ...UnmarshalOption) (Segment, error) {
	var o unmarshalOptions
	for _, opt := range opts {
		opt.apply(&o)
	}

	r := jreader.NewReader(data)
	var seg Segment
	readSegment(&r, &seg)
	if err := r.Error(); err != nil {
		return Segment{}, jreader.ToJSONError(err, &seg)
	}
	if !o.skipPreprocessing {
		PreprocessSegment(&seg)
	}
	return seg, nil
}

// UnmarshalJSON implements encoding/json interop for FeatureFlag, delegating to the same streaming
// reader used by UnmarshalFlag.
func (f *FeatureFlag) UnmarshalJSON(data []byte) error {
	flag, err := UnmarshalFlag(data)
	if err != nil {
		return err
	}
	*f = flag
	return nil
}

// UnmarshalJSON implements encoding/json interop for Segment, delegating to the same streaming
// reader used by UnmarshalSegment.
func (s *Segment) UnmarshalJSON(data []byte) error {
	seg, err := UnmarshalSegment(data)
	if err != nil {
		return err
	}
	*s = seg
	return nil
}

func readFlag(r *jreader.Reader, flag *FeatureFlag) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			flag.Key = r.String()
		case "version":
			flag.Version = r.Int()
		case "on":
			flag.On = r.Bool()
		case "prerequisites":
			readPrerequisites(r, &flag.Prerequisites)
		case "targets":
			readTargets(r, &flag.Targets)
		case "rules":
			readFlagRules(r, &flag.Rules)
		case "fallthrough":
			readVariationOrRollout(r, &flag.Fallthrough)
		case "offVariation":
			flag.OffVariation.ReadFromJSONReader(r)
		case "variations":
			readValueList(r, &flag.Variations)
		case "salt":
			flag.Salt = r.String()
		case "trackEvents":
			flag.TrackEvents = r.Bool()
		case "trackEventsFallthrough":
			flag.TrackEventsFallthrough = r.Bool()
		case "debugEventsUntilDate":
			val, _ := r.Float64OrNull()
			flag.DebugEventsUntilDate = ldtime.UnixMillisecondTime(val)
		case "deleted":
			flag.Deleted = r.Bool()
		}
	}
}

func readPrerequisites(r *jreader.Reader, out *[]Prerequisite) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var p Prerequisite
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "key":
				p.Key = r.String()
			case "variation":
				p.Variation = r.Int()
			}
		}
		*out = append(*out, p)
	}
}

func readTargets(r *jreader.Reader, out *[]Target) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var t Target
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "values":
				readStringList(r, &t.Values)
			case "variation":
				t.Variation = r.Int()
			}
		}
		*out = append(*out, t)
	}
}

func readFlagRules(r *jreader.Reader, out *[]FlagRule) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var rule FlagRule
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "id":
				rule.ID = r.String()
			case "variation":
				rule.Variation.ReadFromJSONReader(r)
			case "rollout":
				readRollout(r, &rule.Rollout)
			case "clauses":
				readClauses(r, &rule.Clauses)
			case "trackEvents":
				rule.TrackEvents = r.Bool()
			}
		}
		*out = append(*out, rule)
	}
}

func readClauses(r *jreader.Reader, out *[]Clause) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var c Clause
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "attribute":
				c.Attribute = r.String()
			case "op":
				c.Op = Operator(r.String())
			case "values":
				readValueList(r, &c.Values)
			case "negate":
				c.Negate = r.Bool()
			}
		}
		*out = append(*out, c)
	}
}

func readVariationOrRollout(r *jreader.Reader, out *VariationOrRollout) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "variation":
			out.Variation.ReadFromJSONReader(r)
		case "rollout":
			readRollout(r, &out.Rollout)
		}
	}
}

func readRollout(r *jreader.Reader, out *Rollout) {
	obj := r.ObjectOrNull()
	if !obj.IsDefined() {
		*out = Rollout{}
		return
	}
	for obj.Next() {
		switch string(obj.Name()) {
		case "kind":
			out.Kind = RolloutKind(r.String())
		case "variations":
			for arr := r.Array(); arr.Next(); {
				var wv WeightedVariation
				for wvObj := r.Object(); wvObj.Next(); {
					switch string(wvObj.Name()) {
					case "variation":
						wv.Variation = r.Int()
					case "weight":
						wv.Weight = r.Int()
					case "untracked":
						wv.Untracked = r.Bool()
					}
				}
				out.Variations = append(out.Variations, wv)
			}
		case "bucketBy":
			out.BucketBy, _ = r.StringOrNull()
		case "seed":
			if n, ok := r.IntOrNull(); ok {
				out.Seed = ldvalue.NewOptionalInt(n)
			}
		}
	}
}

func readSegment(r *jreader.Reader, seg *Segment) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			seg.Key = r.String()
		case "version":
			seg.Version = r.Int()
		case "included":
			readStringList(r, &seg.Included)
		case "excluded":
			readStringList(r, &seg.Excluded)
		case "salt":
			seg.Salt = r.String()
		case "unbounded":
			seg.Unbounded = r.Bool()
		case "generation":
			seg.Generation.ReadFromJSONReader(r)
		case "deleted":
			seg.Deleted = r.Bool()
		case "rules":
			for arr := r.ArrayOrNull(); arr.Next(); {
				var rule SegmentRule
				for ruleObj := r.Object(); ruleObj.Next(); {
					switch string(ruleObj.Name()) {
					case "id":
						rule.ID = r.String()
					case "clauses":
						readClauses(r, &rule.Clauses)
					case "weight":
						if v, ok := r.IntOrNull(); ok {
							rule.Weight = ldvalue.NewOptionalInt(v)
						}
					case "bucketBy":
						rule.BucketBy, _ = r.StringOrNull()
					}
				}
				seg.Rules = append(seg.Rules, rule)
			}
		}
	}
}

func readStringList(r *jreader.Reader, out *[]string) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		*out = append(*out, r.String())
	}
}

func readValueList(r *jreader.Reader, out *[]ldvalue.Value) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var v ldvalue.Value
		v.ReadFromJSONReader(r)
		*out = append(*out, v)
	}
}
