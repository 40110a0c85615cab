package crypto

import "github.com/awnumar/memguard"

// Zero wipes b in place. It is used for passphrases and plaintext copies
// that live outside a locked buffer.
func Zero(b []byte) {
	memguard.WipeBytes(b)
}

// IsZero reports whether every byte of b is zero.
func IsZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
