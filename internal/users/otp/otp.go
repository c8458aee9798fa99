// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package otp implements stateless one-time-password challenges.

A challenge binds an e-mail address, a 6-character code and an expiry into an
HMAC-SHA256 digest. The client keeps the challenge token
("<hex digest>.<expiry unix ms>") and sends it back with the code; the server
recomputes the digest instead of storing codes.

Two pieces of state harden the scheme:

  - a burn list, so a verified token cannot be replayed before it expires;
  - a per-address resend cooldown.
*/
package otp

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

const (
	// DefaultTTL is how long a challenge stays valid.
	DefaultTTL = 5 * time.Minute

	// DefaultCooldown is the minimum gap between two challenges for one address.
	DefaultCooldown = 60 * time.Second

	// CodeLength is the number of characters in a code.
	CodeLength = 6

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Verification failures.
var (
	ErrMalformed = apperr.BadRequest("OTP_MALFORMED", "Verification token is malformed")
	ErrExpired   = apperr.BadRequest("OTP_EXPIRED", "OTP has expired, please request a new one")
	ErrMismatch  = apperr.BadRequest("OTP_MISMATCH", "Invalid OTP")
	ErrConsumed  = apperr.BadRequest("OTP_CONSUMED", "OTP has already been used")
)

// Purpose selects the wording of the e-mail.
type Purpose int

const (
	PurposeSignup Purpose = iota
	PurposePasswordReset
)

// Mailer delivers the code. Implemented by the platform mail senders.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Ledger holds the small amount of state the protocol needs.
type Ledger interface {
	// Burn records a verified digest. It returns false when it was already burnt.
	Burn(ctx context.Context, digest string, ttl time.Duration) (bool, error)
	// StartCooldown returns false when address is still cooling down.
	StartCooldown(ctx context.Context, address string, window time.Duration) (bool, error)
	// ClearCooldown lifts the cooldown after a failed delivery.
	ClearCooldown(ctx context.Context, address string) error
	// Unburn forgets a burnt digest so the token can be verified again.
	Unburn(ctx context.Context, digest string) error
}

// Issuer issues and verifies challenges.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
	generate func() (string, error)
	mailer   Mailer
	ledger   Ledger
	logger   *slog.Logger
}

// Option customises an [Issuer].
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(issuer *Issuer) { issuer.now = now }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(issuer *Issuer) { issuer.generate = generate }
}

// WithCooldown overrides [DefaultCooldown]. Zero disables the cooldown.
func WithCooldown(window time.Duration) Option {
	return func(issuer *Issuer) { issuer.cooldown = window }
}

// NewIssuer builds an issuer keyed by secret.
func NewIssuer(secret string, mailer Mailer, ledger Ledger, logger *slog.Logger, opts ...Option) *Issuer {
	issuer := &Issuer{
		secret:   []byte(secret),
		ttl:      DefaultTTL,
		cooldown: DefaultCooldown,
		now:      time.Now,
		generate: GenerateCode,
		mailer:   mailer,
		ledger:   ledger,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

/*
RequestChallenge generates a code, mails it to address and returns the challenge token.

Nothing about the code is stored.

Returns:
  - string: "<hex digest>.<expiry unix ms>"
  - error: RATE_LIMITED inside the cooldown, EXTERNAL_SERVICE_ERROR if the mail fails
*/
func (issuer *Issuer) RequestChallenge(ctx context.Context, address string, purpose Purpose) (string, error) {
	address = NormalizeEmail(address)

	if err := issuer.startCooldown(ctx, address); err != nil {
		return "", err
	}

	code, err := issuer.generate()
	if err != nil {
		issuer.clearCooldown(ctx, address)
		return "", fmt.Errorf("otp_generate_failed: %w", err)
	}

	expiry := issuer.now().Add(issuer.ttl).UnixMilli()
	token := issuer.sign(address, code, expiry)

	subject, body := message(purpose, code)
	if err := issuer.mailer.Send(ctx, address, subject, body); err != nil {
		issuer.clearCooldown(ctx, address)
		return "", apperr.ExternalService("Mail service", err)
	}

	issuer.logger.InfoContext(ctx, "otp_issued", slog.Int64("expires_at_ms", expiry))

	return token, nil
}

/*
Decoy returns a well-formed token that never verifies, without sending mail.

Used when the address has no account, so callers cannot tell the two cases apart.
The cooldown still applies.
*/
func (issuer *Issuer) Decoy(ctx context.Context, address string) (string, error) {
	address = NormalizeEmail(address)

	if err := issuer.startCooldown(ctx, address); err != nil {
		return "", err
	}

	random := make([]byte, sha256.Size)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("otp_decoy_failed: %w", err)
	}

	expiry := issuer.now().Add(issuer.ttl).UnixMilli()
	return hex.EncodeToString(random) + "." + strconv.FormatInt(expiry, 10), nil
}

/*
Verify checks code against token for address.

Returns:
  - ErrMalformed: token is not "<digest>.<expiry>"
  - ErrExpired: now is past expiry, whatever the code
  - ErrMismatch: digest differs (wrong code, address or tampered expiry)
  - ErrConsumed: the token was already verified once
*/
func (issuer *Issuer) Verify(ctx context.Context, address, code, token string) error {
	digest, rawExpiry, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || digest == "" {
		return ErrMalformed
	}

	expiry, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return ErrMalformed
	}

	now := issuer.now()
	if now.UnixMilli() > expiry {
		return ErrExpired
	}

	expected := issuer.sign(NormalizeEmail(address), NormalizeCode(code), expiry)
	if !hmac.Equal([]byte(strings.ToLower(digest)+"."+rawExpiry), []byte(expected)) {
		return ErrMismatch
	}

	if issuer.ledger != nil {
		remaining := time.UnixMilli(expiry).Sub(now) + time.Second
		fresh, err := issuer.ledger.Burn(ctx, digest, remaining)
		if err != nil {
			return fmt.Errorf("otp_burn_failed: %w", err)
		}
		if !fresh {
			return ErrConsumed
		}
	}

	return nil
}

/*
Release makes a verified token usable again.

Callers use it when the step that followed a successful [Issuer.Verify]
failed, so the user can retry with the same code while it is still valid.
*/
func (issuer *Issuer) Release(ctx context.Context, token string) error {
	digest, _, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || digest == "" || issuer.ledger == nil {
		return nil
	}
	if err := issuer.ledger.Unburn(ctx, digest); err != nil {
		return fmt.Errorf("otp_release_failed: %w", err)
	}
	return nil
}

// sign returns the challenge token for the normalised inputs.
func (issuer *Issuer) sign(address, code string, expiry int64) string {
	expiryText := strconv.FormatInt(expiry, 10)

	mac := hmac.New(sha256.New, issuer.secret)
	mac.Write([]byte(address + "." + code + "." + expiryText))

	return hex.EncodeToString(mac.Sum(nil)) + "." + expiryText
}

func (issuer *Issuer) startCooldown(ctx context.Context, address string) error {
	if issuer.ledger == nil || issuer.cooldown <= 0 {
		return nil
	}

	allowed, err := issuer.ledger.StartCooldown(ctx, address, issuer.cooldown)
	if err != nil {
		return fmt.Errorf("otp_cooldown_failed: %w", err)
	}
	if !allowed {
		return apperr.RateLimited(int(issuer.cooldown.Seconds()))
	}
	return nil
}

func (issuer *Issuer) clearCooldown(ctx context.Context, address string) {
	if issuer.ledger == nil || issuer.cooldown <= 0 {
		return
	}
	if err := issuer.ledger.ClearCooldown(ctx, address); err != nil {
		issuer.logger.WarnContext(ctx, "otp_cooldown_clear_failed", slog.Any("error", err))
	}
}

// GenerateCode returns CodeLength uppercase alphanumeric characters from crypto/rand.
func GenerateCode() (string, error) {
	limit := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, CodeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizeCode trims and upper-cases a submitted code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func message(purpose Purpose, code string) (subject, body string) {
	switch purpose {
	case PurposePasswordReset:
		return "Bloomify password reset code",
			fmt.Sprintf("Your OTP for authentication is: %s. Please use it to reset your Bloomify password.", code)
	default:
		return "Bloomify verification code",
			fmt.Sprintf("Your OTP for authentication is: %s. Please use it to signup for Bloomify.", code)
	}
}
