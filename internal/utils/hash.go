package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashSHA256Header carries the hex HMAC-SHA256 of a request body.
const HashSHA256Header = "HashSHA256"

// Hash computes HMAC-SHA256 of data under key.
func Hash(data []byte, key string) []byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	return h.Sum(nil)
}

// HashHex is [Hash] in hex form, as sent in [HashSHA256Header].
func HashHex(data []byte, key string) string {
	return hex.EncodeToString(Hash(data, key))
}

// VerifyHashHex reports in constant time whether sum is the hex HMAC of
// data under key.
func VerifyHashHex(data []byte, key, sum string) bool {
	decoded, err := hex.DecodeString(sum)
	if err != nil {
		return false
	}
	return hmac.Equal(decoded, Hash(data, key))
}
