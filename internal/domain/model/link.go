package model

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// Link-code and attempt-tracking windows. The code TTL, the attempt
// window and the lockout share the same duration in production.
const (
	LinkCodeTTL       = 300 * time.Second
	LinkAttemptWindow = 300 * time.Second
	LinkLockoutPeriod = 300 * time.Second
	LinkMaxAttempts   = 5
)

// AccountLink is a confirmed 1:1 mapping between a Telegram identity and
// a WhatsApp phone number. At most one link per side at any time.
type AccountLink struct {
	ID            string
	TelegramID    string
	WhatsAppPhone string
	LinkedAt      time.Time
}

// LinkCode is a one-time short numeric code proving control of a
// Telegram identity. At most one active code per identity.
type LinkCode struct {
	Code       string
	TelegramID string
	CreatedAt  time.Time
}

// Expired reports whether the code is older than the TTL. Stored
// timestamps may be zone-naive; both sides are normalized to UTC.
func (c *LinkCode) Expired(now time.Time) bool {
	return now.UTC().Sub(asUTC(c.CreatedAt)) > LinkCodeTTL
}

// LinkAttempt tracks failed confirmations per WhatsApp phone. The phone
// side is tracked because short numeric codes are guessable from there.
type LinkAttempt struct {
	Phone          string
	AttemptCount   int
	FirstAttemptAt time.Time
	LockedUntil    *time.Time
}

// Locked reports whether the phone is currently locked out.
func (a *LinkAttempt) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.UTC().Before(asUTC(*a.LockedUntil))
}

// WindowElapsed reports whether the rolling tracking window has passed
// since the first recorded attempt, which forgives the counter.
func (a *LinkAttempt) WindowElapsed(now time.Time) bool {
	return now.UTC().Sub(asUTC(a.FirstAttemptAt)) > LinkAttemptWindow
}

// RegisterFailure bumps the counter and escalates to a lockout once the
// threshold is reached. Returns true when the lockout was triggered.
func (a *LinkAttempt) RegisterFailure(now time.Time) bool {
	now = now.UTC()
	if a.AttemptCount == 0 || a.WindowElapsed(now) {
		a.AttemptCount = 0
		a.FirstAttemptAt = now
	}
	a.AttemptCount++
	if a.AttemptCount >= LinkMaxAttempts {
		until := now.Add(LinkLockoutPeriod)
		a.LockedUntil = &until
		return true
	}
	return false
}

// asUTC normalizes stored timestamps before comparison. Columns are
// timestamptz, so the instant is preserved regardless of session zone.
func asUTC(t time.Time) time.Time { return t.UTC() }

// ConfirmResult classifies a confirmation attempt. These are values, not
// errors: wrong, expired and rate-limited codes are expected traffic.
type ConfirmResult string

const (
	ConfirmSuccess     ConfirmResult = "success"
	ConfirmInvalid     ConfirmResult = "invalid"
	ConfirmRateLimited ConfirmResult = "rate_limited"
)

// GenerateLinkCode creates a 6-digit numeric code from a CSPRNG.
func GenerateLinkCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	code := ""
	for _, b := range buf {
		code += fmt.Sprintf("%d", int(b)%10)
	}
	return code, nil
}
