package utils

import (
	"crypto/sha256"
)

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return digest[:]
}

// SHA256Hex returns the lowercase hex SHA256 digest of the message.
func SHA256Hex(msg []byte) string {
	return BytesToHex(SHA256(msg))
}
