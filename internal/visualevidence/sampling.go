package visualevidence

import "math"

// DefaultFrameWidth is the width every sampled frame is scaled to.
const DefaultFrameWidth = 960

// FrameIndex maps fraction of a total-frame video to the nearest valid frame
// index.
func FrameIndex(total int, fraction float64) int {
	if total <= 0 {
		return 0
	}
	idx := int(math.Round(float64(total) * fraction))
	return min(max(idx, 0), total-1)
}

// ScaledHeight keeps the aspect ratio of a width x height frame scaled to
// target width. The result is never below 1.
func ScaledHeight(width, height, target int) int {
	if width <= 0 || height <= 0 || target <= 0 {
		return 0
	}
	return max(height*target/width, 1)
}
