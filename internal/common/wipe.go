package common

// WipeBytes zeroes b so passwords do not linger in memory after use.
func WipeBytes(b []byte) {
	clear(b)
}
