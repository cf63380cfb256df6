package evaluation

import (
	"crypto/sha1" //nolint:gosec // not used for anything security-sensitive, just deterministic hashing
	"encoding/hex"
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/go-evaluator-core/ldmodel"
	"github.com/launchdarkly/go-evaluator-core/lduser"
)

// longScale is 2^60 - 1 expressed as a float64, matching the normative bucketing algorithm shared
// across every SDK in this family: the first 15 hex digits of a SHA-1 digest represent 60 bits.
const longScale = float64(0xFFFFFFFFFFFFFFF)

// bucketUser computes a deterministic bucket value in [0, 1) for a user under a given flag or
// segment key, salt, bucket-by attribute, and optional experiment seed.
//
// The exact hash input construction and the 15-hex-character truncation are normative: every
// other SDK in the product family must produce the same float for the same inputs.
func bucketUser(user lduser.User, key string, bucketBy string, salt string, seed ldvalue.OptionalInt) float64 {
	idHash, ok := bucketableStringValue(user, bucketBy)
	if !ok {
		return 0
	}

	if !seed.IsDefined() {
		if secondary, hasSecondary := user.GetSecondaryKey().Get(); hasSecondary {
			idHash = idHash + "." + secondary
		}
	}

	var prefix string
	if seedValue, hasSeed := seed.Get(); hasSeed {
		prefix = strconv.Itoa(seedValue)
	} else {
		prefix = key + "." + salt
	}

	h := sha1.New() //nolint:gosec
	_, _ = h.Write([]byte(prefix + "." + idHash))
	hash := hex.EncodeToString(h.Sum(nil))[:15]

	intVal, _ := strconv.ParseUint(hash, 16, 64)

	return float64(intVal) / longScale
}

// bucketableStringValue resolves the bucket-by attribute to a string suitable for hashing.
// Strings are used as-is; integers are decimal-stringified. Any other type (bool, float, array,
// object, null) or a missing attribute is not bucketable.
func bucketableStringValue(user lduser.User, attr string) (string, bool) {
	value, ok := user.ValueOf(attr)
	if !ok {
		return "", false
	}
	switch value.Type() {
	case ldvalue.StringType:
		return value.StringValue(), true
	case ldvalue.NumberType:
		f := value.Float64Value()
		i := int64(f)
		if float64(i) != f {
			return "", false // not an integer value
		}
		return strconv.FormatInt(i, 10), true
	default:
		return "", false
	}
}

// rolloutResult is the outcome of resolving a Rollout against a user: which variation was
// selected, and whether it should count toward an experiment.
type rolloutResult struct {
	variation    int
	inExperiment bool
}

// resolveRollout picks a variation from a weighted rollout by bucketing the user and walking the
// weighted variations in order. If the bucket value is not below the running sum at any entry
// (weights summing to less than 1.0), the last variation is chosen. A user whose bucketing
// attribute could not be hashed gets bucket value 0, which selects the first variation with a
// nonzero weight, or the last variation if every weight is zero.
func resolveRollout(user lduser.User, flagOrSegmentKey string, salt string, rollout ldmodel.Rollout) rolloutResult {
	bucketBy := rollout.BucketBy
	if bucketBy == "" {
		bucketBy = "key"
	}

	bucket := bucketUser(user, flagOrSegmentKey, bucketBy, salt, rollout.Seed)

	var sum float64
	isExperiment := rollout.IsExperiment()
	for _, wv := range rollout.Variations {
		sum += float64(wv.Weight) / 100000.0
		if bucket < sum {
			return rolloutResult{variation: wv.Variation, inExperiment: isExperiment && !wv.Untracked}
		}
	}

	last := rollout.Variations[len(rollout.Variations)-1]
	return rolloutResult{variation: last.Variation, inExperiment: isExperiment && !last.Untracked}
}
