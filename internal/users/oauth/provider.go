// Copyright (c) 2026 Bloomify. All rights reserved.

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Identity is what the provider vouches for.
type Identity struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Provider is an OAuth 2.0 identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*Identity, error)
}

// GoogleProvider signs users in with Google.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider configures the authorization-code flow for the openid and email scopes.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// AuthCodeURL returns the consent page address carrying state.
func (provider *GoogleProvider) AuthCodeURL(state string) string {
	return provider.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

/*
Identify exchanges code for a token and reads the account e-mail.

Returns:
  - *Identity: e-mail and whether Google verified it
  - error: EXTERNAL_SERVICE_ERROR when Google cannot be reached or refuses
*/
func (provider *GoogleProvider) Identify(ctx context.Context, code string) (*Identity, error) {
	token, err := provider.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.ExternalService("Google sign-in", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth_userinfo_request_failed: %w", err)
	}

	response, err := provider.config.Client(ctx, token).Do(request)
	if err != nil {
		return nil, apperr.ExternalService("Google sign-in", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperr.ExternalService("Google sign-in", fmt.Errorf("userinfo status %d", response.StatusCode))
	}

	var identity Identity
	if err := json.NewDecoder(response.Body).Decode(&identity); err != nil {
		return nil, apperr.ExternalService("Google sign-in", err)
	}

	return &identity, nil
}
