package ldmodel

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// MarshalFlag encodes a FeatureFlag to its wire JSON form.
func MarshalFlag(flag FeatureFlag) ([]byte, error) {
	w := jwriter.NewWriter()
	writeFlag(flag, &w)
	return w.Bytes(), w.Error()
}

// MarshalSegment encodes a Segment to its wire JSON form.
func MarshalSegment(segment Segment) ([]byte, error) {
	w := jwriter.NewWriter()
	writeSegment(segment, &w)
	return w.Bytes(), w.Error()
}

// MarshalJSON implements encoding/json interop for FeatureFlag.
func (f FeatureFlag) MarshalJSON() ([]byte, error) {
	return MarshalFlag(f)
}

// MarshalJSON implements encoding/json interop for Segment.
func (s Segment) MarshalJSON() ([]byte, error) {
	return MarshalSegment(s)
}

func writeFlag(flag FeatureFlag, w *jwriter.Writer) {
	obj := w.Object()

	obj.Name("key").String(flag.Key)
	obj.Name("version").Int(flag.Version)
	obj.Name("on").Bool(flag.On)

	prereqsArr := obj.Name("prerequisites").Array()
	for _, p := range flag.Prerequisites {
		prereqObj := prereqsArr.Object()
		prereqObj.Name("key").String(p.Key)
		prereqObj.Name("variation").Int(p.Variation)
		prereqObj.End()
	}
	prereqsArr.End()

	writeTargets(&obj, flag.Targets)

	rulesArr := obj.Name("rules").Array()
	for _, r := range flag.Rules {
		ruleObj := rulesArr.Object()
		ruleObj.Maybe("id", r.ID != "").String(r.ID)
		writeVariationOrRolloutProperties(&ruleObj, r.VariationOrRollout)
		writeClauses(w, &ruleObj, r.Clauses)
		ruleObj.Name("trackEvents").Bool(r.TrackEvents)
		ruleObj.End()
	}
	rulesArr.End()

	fallthroughObj := obj.Name("fallthrough").Object()
	writeVariationOrRolloutProperties(&fallthroughObj, flag.Fallthrough)
	fallthroughObj.End()

	flag.OffVariation.WriteToJSONWriter(obj.Name("offVariation"))

	variationsArr := obj.Name("variations").Array()
	for _, v := range flag.Variations {
		v.WriteToJSONWriter(w)
	}
	variationsArr.End()

	obj.Name("salt").String(flag.Salt)
	obj.Name("trackEvents").Bool(flag.TrackEvents)
	obj.Name("trackEventsFallthrough").Bool(flag.TrackEventsFallthrough)
	obj.Name("debugEventsUntilDate").Float64OrNull(flag.DebugEventsUntilDate != 0, float64(flag.DebugEventsUntilDate))
	obj.Name("deleted").Bool(flag.Deleted)

	obj.End()
}

func writeTargets(obj *jwriter.ObjectState, targets []Target) {
	targetsArr := obj.Name("targets").Array()
	for _, t := range targets {
		targetObj := targetsArr.Object()
		targetObj.Name("variation").Int(t.Variation)
		writeStringArray(&targetObj, "values", t.Values)
		targetObj.End()
	}
	targetsArr.End()
}

func writeSegment(segment Segment, w *jwriter.Writer) {
	obj := w.Object()

	obj.Name("key").String(segment.Key)
	obj.Name("version").Int(segment.Version)
	writeStringArray(&obj, "included", segment.Included)
	writeStringArray(&obj, "excluded", segment.Excluded)
	obj.Name("salt").String(segment.Salt)

	rulesArr := obj.Name("rules").Array()
	for _, r := range segment.Rules {
		ruleObj := rulesArr.Object()
		ruleObj.Name("id").String(r.ID)
		writeClauses(w, &ruleObj, r.Clauses)
		ruleObj.Maybe("weight", r.Weight.IsDefined()).Int(r.Weight.IntValue())
		ruleObj.Maybe("bucketBy", r.BucketBy != "").String(r.BucketBy)
		ruleObj.End()
	}
	rulesArr.End()

	obj.Maybe("unbounded", segment.Unbounded).Bool(segment.Unbounded)
	segment.Generation.WriteToJSONWriter(obj.Name("generation"))
	obj.Name("deleted").Bool(segment.Deleted)

	obj.End()
}

func writeStringArray(obj *jwriter.ObjectState, name string, values []string) {
	arr := obj.Name(name).Array()
	for _, v := range values {
		arr.String(v)
	}
	arr.End()
}

func writeVariationOrRolloutProperties(obj *jwriter.ObjectState, vr VariationOrRollout) {
	obj.Maybe("variation", vr.Variation.IsDefined()).Int(vr.Variation.IntValue())
	if len(vr.Rollout.Variations) > 0 {
		rolloutObj := obj.Name("rollout").Object()
		rolloutObj.Maybe("kind", vr.Rollout.Kind != "").String(string(vr.Rollout.Kind))
		variationsArr := rolloutObj.Name("variations").Array()
		for _, wv := range vr.Rollout.Variations {
			variationObj := variationsArr.Object()
			variationObj.Name("variation").Int(wv.Variation)
			variationObj.Name("weight").Int(wv.Weight)
			variationObj.Maybe("untracked", wv.Untracked).Bool(wv.Untracked)
			variationObj.End()
		}
		variationsArr.End()
		rolloutObj.Maybe("seed", vr.Rollout.Seed.IsDefined()).Int(vr.Rollout.Seed.IntValue())
		rolloutObj.Maybe("bucketBy", vr.Rollout.BucketBy != "").String(vr.Rollout.BucketBy)
		rolloutObj.End()
	}
}

func writeClauses(w *jwriter.Writer, obj *jwriter.ObjectState, clauses []Clause) {
	clausesArr := obj.Name("clauses").Array()
	for _, c := range clauses {
		clauseObj := clausesArr.Object()
		clauseObj.Name("attribute").String(c.Attribute)
		clauseObj.Name("op").String(string(c.Op))
		valuesArr := clauseObj.Name("values").Array()
		for _, v := range c.Values {
			v.WriteToJSONWriter(w)
		}
		valuesArr.End()
		clauseObj.Name("negate").Bool(c.Negate)
		clauseObj.End()
	}
	clausesArr.End()
}
