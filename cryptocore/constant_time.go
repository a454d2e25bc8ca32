package cryptocore

import (
	"crypto/subtle"
	"runtime"
)

// ConstantTimeEqual reports whether a and b hold identical bytes, without
// branching on length in a way that would leak a mismatch position. Unlike
// crypto/subtle.ConstantTimeCompare, which returns immediately when lengths
// differ, this always walks the longer of the two buffers so a
// length-mismatch and a content-mismatch take the same number of byte
// comparisons.
func ConstantTimeEqual(a, b []byte) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var diff byte
	for i := 0; i < n; i++ {
		var av, bv byte
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		diff |= av ^ bv
	}
	diff |= byte(subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) ^ 1)
	return diff == 0
}

// SecureClear overwrites buf with zeros. runtime.KeepAlive pins buf past
// the loop so the compiler cannot prove the writes are dead and elide them.
func SecureClear(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
