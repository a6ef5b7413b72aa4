package timeline

// FitSharedGap splits a gap bordered by a home-base-end leg (of the earlier
// job) and a home-base-start leg (of the later job). The end leg is fitted
// first and takes min(endLeg, gap); the start leg gets what remains, up to
// its own length. Spans are computed before the render threshold is applied,
// so an end span too short to draw still consumes its share of the gap.
func FitSharedGap(gap, endLeg, startLeg int) (endSpan, startSpan int) {
	if gap <= 0 {
		return 0, 0
	}
	endSpan = min(max(endLeg, 0), gap)
	startSpan = min(max(startLeg, 0), gap-endSpan)
	return endSpan, startSpan
}
