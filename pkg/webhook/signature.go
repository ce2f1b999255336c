package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "intuit-signature"

// Verify reports whether signature is the base64-encoded HMAC-SHA256 of
// rawBody under secret. rawBody must be the bytes exactly as received.
func Verify(rawBody []byte, signature string, secret []byte) bool {
	if signature == "" || len(secret) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature Verify expects. Used by tests and tooling.
func Sign(rawBody []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
