package whatsapp

import (
	"crypto/subtle"
	"errors"
)

var (
	ErrVerifyMissingParams = errors.New("missing parameters")
	ErrVerifyFailed        = errors.New("verification failed")
)

// VerifySubscription answers the webhook registration handshake. It returns
// the challenge to echo when mode is "subscribe" and token matches.
func VerifySubscription(mode, token, challenge, expectedToken string) (string, error) {
	if mode == "" || token == "" {
		return "", ErrVerifyMissingParams
	}
	if mode != "subscribe" || expectedToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
		return "", ErrVerifyFailed
	}
	return challenge, nil
}
