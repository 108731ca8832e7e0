package accounts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// ResetTokenizer derives and checks password reset hashes. Tokens are never
// stored: they are recomputed from the account state and compared in
// constant time, so changing the password or logging in invalidates every
// outstanding token.
type ResetTokenizer struct {
	secret []byte
	now    func() time.Time
}

// ResetTokenizerOption customizes tokenizer construction.
type ResetTokenizerOption func(*ResetTokenizer)

// WithTokenizerClock injects a custom clock (useful for tests).
func WithTokenizerClock(clock func() time.Time) ResetTokenizerOption {
	return func(t *ResetTokenizer) {
		if clock != nil {
			t.now = clock
		}
	}
}

// NewResetTokenizer creates a tokenizer keyed with the server side secret.
func NewResetTokenizer(secret []byte, opts ...ResetTokenizerOption) *ResetTokenizer {
	t := &ResetTokenizer{
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// ComputeResetHash derives the reset hash for an account at the given
// timestamp. The key mixes the server secret with the current password
// hash and the payload binds identity, email and last login.
func (t *ResetTokenizer) ComputeResetHash(account *Account, timestamp int64) string {
	key := make([]byte, 0, len(t.secret)+len(account.PasswordHash))
	key = append(key, t.secret...)
	key = append(key, account.PasswordHash...)

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%d:%d:%s:%s", timestamp, account.LastLoginUnix(), account.ID, account.Email)

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateResetToken checks the presented timestamp and hash against the
// account state. All of the following must hold:
//   - the timestamp is not in the future
//   - strictly less than timeout has elapsed since the timestamp
//   - the timestamp is not older than the account's last login
//   - the recomputed hash equals the presented one (constant time)
func (t *ResetTokenizer) ValidateResetToken(account *Account, timestamp int64, presented string, timeout time.Duration) error {
	now := t.now().Unix()
	timeoutSeconds := int64(timeout / time.Second)

	valid := timestamp <= now &&
		now-timestamp < timeoutSeconds &&
		timestamp >= account.LastLoginUnix() &&
		hmac.Equal([]byte(presented), []byte(t.ComputeResetHash(account, timestamp)))

	if !valid {
		return NewUnprocessableError("the password reset information is no longer valid").
			WithTextCode(TextCodeResetInfoInvalid)
	}

	return nil
}
