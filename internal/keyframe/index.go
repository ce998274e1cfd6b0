// Package keyframe answers "which keyframe (and which segment) is nearest
// a seek target" — the lookup the Transcode Job Manager uses to align a
// restart with the encoder's GoP boundaries instead of seeking mid-GoP.
package keyframe

import "sort"

// Index is a source's GoP boundary list in ascending seconds, as reported
// by the catalog/prober.
type Index struct {
	timestamps []float64
}

// NewIndex builds an Index from unsorted keyframe timestamps (seconds).
func NewIndex(timestamps []float64) Index {
	cp := append([]float64(nil), timestamps...)
	sort.Float64s(cp)
	return Index{timestamps: cp}
}

// Nearest returns the keyframe at or before targetSeconds (with 1ms of
// slack). When that keyframe lies within one encoder-frame's tolerance
// (10ms) of the target and an earlier keyframe above 0 exists, the earlier
// keyframe is returned instead, mirroring the teacher's
// `findNearestKeyframe`.
func (idx Index) Nearest(targetSeconds float64) float64 {
	if len(idx.timestamps) == 0 {
		return 0
	}

	const epsilon = 0.001
	const driftTolerance = 0.01

	var prev, result float64
	for _, kf := range idx.timestamps {
		if kf <= targetSeconds+epsilon {
			prev = result
			result = kf
		} else {
			break
		}
	}

	if prev > 0 && targetSeconds-result < driftTolerance {
		return prev
	}
	return result
}

// After returns the keyframe timestamps at or after seconds, in ascending
// order. The Transcode Job Manager uses this to tell the encoder where
// GoP boundaries fall relative to a restart's seek point, so segment
// splits land on real keyframes instead of a fixed time grid.
func (idx Index) After(seconds float64) []float64 {
	i := sort.SearchFloat64s(idx.timestamps, seconds)
	if i >= len(idx.timestamps) {
		return nil
	}
	out := make([]float64, len(idx.timestamps)-i)
	copy(out, idx.timestamps[i:])
	return out
}

// SegmentIndex maps a seek target to the 0-based segment number whose
// window contains the nearest keyframe, given a fixed segment duration.
// This is what the manifest endpoint uses to compute a restart's
// start-segment-number (spec §4.C).
func (idx Index) SegmentIndex(targetSeconds, segmentDurationSeconds float64) (segment int, actualSeconds float64) {
	actual := idx.Nearest(targetSeconds)
	if segmentDurationSeconds <= 0 {
		return 0, actual
	}
	return int(actual / segmentDurationSeconds), actual
}
