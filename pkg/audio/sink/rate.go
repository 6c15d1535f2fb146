package sink

// NeededSourceFrames returns how many source-rate frames produce requested
// target-rate frames, rounded half up.
func NeededSourceFrames(requested, sourceRate, targetRate int) int {
	if requested <= 0 || sourceRate <= 0 || targetRate <= 0 {
		return 0
	}
	return int(float64(requested)*float64(sourceRate)/float64(targetRate) + 0.5)
}
