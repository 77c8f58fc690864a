package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload computes the hex HMAC-SHA256 of a webhook body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the provider's webhook signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	want := SignPayload(secret, body)
	return hmac.Equal([]byte(want), []byte(signature))
}
