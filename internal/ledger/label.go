package ledger

// Label renders an enactment sequence number as a human-readable alias:
// 0 -> "a", 1 -> "b", ..., 25 -> "z", 26 -> "aa", 27 -> "ab", and so on
// (bijective base-26). The alias is purely presentational; the stored
// identifier is the unbounded sequence number, so there is no overflow to
// handle at the storage layer.
func Label(seq uint64) string {
	// Bijective base-26 works on 1-based numerals.
	n := seq + 1
	var buf [14]byte // enough for any uint64
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('a' + n%26)
		n /= 26
	}
	return string(buf[i:])
}
