// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package constants provides shared, immutable values for the whole service.

Categories:

  - Server timing and rate limiting.
  - Cookie names and paths for sessions and signup flows.
  - Redis key prefixes for volatile state.
  - HTTP header and JSON field names.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "bloomify-api"
	AppVersion = "0.1.0"
)

// # Server Timing

const (
	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// DefaultWriteTimeout leaves room for a paper generation round trip.
	DefaultWriteTimeout = 90 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 75 * time.Second

	// ShutdownTimeout is how long in-flight requests get during shutdown.
	ShutdownTimeout = 30 * time.Second

	// SessionPurgeInterval is how often expired sessions are deleted.
	SessionPurgeInterval = 1 * time.Hour
)

// # Rate Limiting

const (
	DefaultRateLimitRPS      = 20.0
	DefaultRateLimitBurst    = 40
	RateLimitCleanupInterval = 1 * time.Minute
	RateLimitClientTTL       = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the 'iss' claim of access and flow tokens.
	AuthIssuer = "bloomify.app"

	// RefreshTokenCookieName holds the long-lived session token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath scopes the session cookie to the auth routes.
	RefreshTokenCookiePath = "/api/v1/auth"

	// FlowCookiePath scopes the signup and reset flow cookies to the API.
	FlowCookiePath = "/api/v1"

	// OAuthStateCookieName carries the anti-forgery state during Google sign-in.
	OAuthStateCookieName = "oauth_state"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers = "users"
)

// # Redis Prefixes

const (
	RedisPrefixPendingSignup = "signup:pending:"
	RedisPrefixFlowBurnt     = "flow:burnt:"
	RedisPrefixOTPBurnt      = "otp:burnt:"
	RedisPrefixOTPCooldown   = "otp:cooldown:"
)
