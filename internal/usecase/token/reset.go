package token

import (
	"account-service/internal/domain/user"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultResetTimeout = 72 * time.Hour

	keySalt = "account-service.usecase.token.ResetTokenGenerator"
)

// epoch is the reference point for token timestamps.
var epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

var ErrInvalidToken = errors.New("invalid or expired token")

// ResetTokens issues password reset tokens of the form
// "<base36 seconds since 2001-01-01>-<hex hmac>". Nothing is stored: the
// digest covers the user's id, password hash, last login and email, so any
// change to those invalidates outstanding tokens.
type ResetTokens struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time
}

type Option func(*ResetTokens)

func WithClock(now func() time.Time) Option {
	return func(r *ResetTokens) { r.now = now }
}

func NewResetTokens(secret string, timeout time.Duration, opts ...Option) *ResetTokens {
	if timeout <= 0 {
		timeout = DefaultResetTimeout
	}
	key := sha256.Sum256([]byte(keySalt + secret))
	r := &ResetTokens{key: key[:], timeout: timeout, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ResetTokens) Generate(u *user.User) string {
	return r.makeToken(u, r.seconds(r.now()))
}

// Validate recomputes the token for u's current state and compares it in
// constant time. Stale, malformed and mismatched tokens all yield ErrInvalidToken.
func (r *ResetTokens) Validate(u *user.User, token string) error {
	if u == nil || token == "" {
		return ErrInvalidToken
	}

	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return ErrInvalidToken
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return ErrInvalidToken
	}

	if !hmac.Equal([]byte(r.makeToken(u, ts)), []byte(token)) {
		return ErrInvalidToken
	}

	if r.seconds(r.now())-ts > int64(r.timeout/time.Second) {
		return ErrInvalidToken
	}

	return nil
}

func (r *ResetTokens) seconds(t time.Time) int64 {
	return int64(t.Sub(epoch) / time.Second)
}

func (r *ResetTokens) makeToken(u *user.User, ts int64) string {
	mac := hmac.New(sha256.New, r.key)
	mac.Write([]byte(hashValue(u, ts)))
	return strconv.FormatInt(ts, 36) + "-" + hex.EncodeToString(mac.Sum(nil))
}

func hashValue(u *user.User, ts int64) string {
	var lastLogin string
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Truncate(time.Second).Format(time.RFC3339)
	}
	return u.ID.String() + u.PasswordHashed + lastLogin + strconv.FormatInt(ts, 10) + u.Email
}
