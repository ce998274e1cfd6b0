package planner

// bitrateBounds clamps a computed target bitrate to sane per-resolution
// bounds, adapted from the teacher's rendition ladder. Only the heights
// listed here are bounded; any other target height keeps its bitrate as is.
var bitrateBounds = map[int]struct{ min, max int64 }{
	2160: {8_000_000, 20_000_000},
	1080: {2_000_000, 8_000_000},
	720:  {1_000_000, 4_000_000},
	480:  {500_000, 2_000_000},
	360:  {300_000, 1_000_000},
}

func clampBitrateForHeight(height int, bitrate int64) int64 {
	b, ok := bitrateBounds[height]
	if !ok {
		return bitrate
	}
	if bitrate < b.min {
		return b.min
	}
	if bitrate > b.max {
		return b.max
	}
	return bitrate
}

// widthForHeight preserves the source aspect ratio at a new target height,
// rounding to an even width as encoders require.
func widthForHeight(srcWidth, srcHeight, targetHeight int) int {
	if srcHeight == 0 {
		return targetHeight
	}
	aspect := float64(srcWidth) / float64(srcHeight)
	w := int(float64(targetHeight) * aspect)
	if w%2 != 0 {
		w++
	}
	return w
}

// capHeight returns srcHeight, lowered to the capability's resolution limit
// (expressed as a max height, 0 = no cap) when that limit is smaller. It
// does not snap to standard rungs.
func capHeight(srcHeight, capMaxHeight int) int {
	h := srcHeight
	if capMaxHeight > 0 && capMaxHeight < h {
		h = capMaxHeight
	}
	return h
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
