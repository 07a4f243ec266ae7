package mathx

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// DeriveSeed mixes a salt into seed so that independent random streams
// (world placement, agent fallback) never share a sequence.
func DeriveSeed(seed int64, salt uint64) int64 {
	return int64(mix64(uint64(seed) ^ (salt * 0xc2b2ae3d27d4eb4f)))
}
