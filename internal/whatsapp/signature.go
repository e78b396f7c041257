package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

var (
	ErrSignatureMissing   = errors.New("signature header missing")
	ErrSignatureMalformed = errors.New("invalid signature format")
	ErrSignatureMismatch  = errors.New("invalid signature")
)

// ValidateSignature checks header against the HMAC-SHA256 of the raw body
// keyed by the app secret. The comparison is constant time.
func ValidateSignature(appSecret string, body []byte, header string) error {
	if header == "" {
		return ErrSignatureMissing
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrSignatureMalformed
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return ErrSignatureMalformed
	}
	if appSecret == "" || !hmac.Equal(got, computeMAC(appSecret, body)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the header value the Graph API would send for body.
func Sign(appSecret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(computeMAC(appSecret, body))
}

func computeMAC(appSecret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return mac.Sum(nil)
}
