package monitor

// Downsample reduces readings to at most maxPoints by decimation for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// The newest reading is always kept so the display ends at the latest value.
func Downsample(dst []Reading, readings []Reading, maxPoints int) []Reading {
	if maxPoints <= 0 {
		return dst[:0]
	}
	if len(readings) <= maxPoints {
		if cap(dst) >= len(readings) {
			dst = dst[:len(readings)]
			copy(dst, readings)
			return dst
		}
		result := make([]Reading, len(readings))
		copy(result, readings)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Reading, 0, maxPoints)
	}

	step := float64(len(readings)) / float64(maxPoints)
	for i := range maxPoints - 1 {
		dst = append(dst, readings[int(float64(i)*step)])
	}
	return append(dst, readings[len(readings)-1])
}
