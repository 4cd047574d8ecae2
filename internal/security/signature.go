package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the lowercase hex HMAC-SHA256 of payload. The payload must be the raw
// request body as received; re-encoding the JSON changes the signature.
func Sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether candidate is the HMAC-SHA256 of payload under secret.
// Malformed hex, a wrong digest length, an empty secret or an empty candidate all
// yield false. An optional "sha256=" prefix is accepted; surrounding whitespace is not.
func Verify(payload []byte, candidate string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	candidate = strings.TrimPrefix(candidate, signaturePrefix)
	if candidate == "" {
		return false
	}
	got, err := hex.DecodeString(candidate)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}
