package utils

import (
	"encoding/hex"
	"strings"
)

func BytesToHex(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

// HexHasLeadingZeros reports whether the hex string starts with difficulty '0' digits.
func HexHasLeadingZeros(digest string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(digest) {
		return false
	}
	return strings.Count(digest[:difficulty], "0") == difficulty
}
