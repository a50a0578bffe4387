package scheduling

import "crypto/rand"

const (
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	tokenLength   = 12
)

// NewAccessToken generates the appointment's public identifier: a short
// crypto-random alphanumeric string that lets the patient view or cancel the
// appointment without authentication. It must not be derivable from the
// appointment id.
func NewAccessToken() (string, error) {
	out := make([]byte, 0, tokenLength)
	buf := make([]byte, 2*tokenLength)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// Reject bytes above the largest multiple of len(alphabet) so
			// every character stays equally likely.
			if b >= byte(256-256%len(tokenAlphabet)) {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}
