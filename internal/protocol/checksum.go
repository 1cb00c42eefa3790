package protocol

// Sum returns the low 8 bits of the arithmetic sum of data. The accumulator is
// 32 bits wide so long inputs cannot overflow before the reduction.
func Sum(data []byte) byte {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return byte(sum % 256)
}

// Verify reports whether want equals the modular sum of data.
func Verify(data []byte, want byte) bool {
	return Sum(data) == want
}
