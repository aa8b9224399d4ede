// Package auth provides the Google OAuth flow, the signed state parameter
// that protects it, and the one-way identity digest that ties a Google
// account to a local user row.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUser is the portion of Google's userinfo response we care about.
//
// Sub is the stable subject identifier — unlike email it never changes for
// the lifetime of the Google account, which is why the identity digest is
// computed from it and not from anything else in the profile.
type GoogleUser struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"` // Google profile picture URL
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. We redirect the browser to Google's authorization endpoint with our
//     ClientID and the requested scopes.
//  2. Google redirects back to CallbackURL with a short-lived "code".
//  3. We exchange the code for an access token, server-to-server, using the
//     ClientSecret.
//  4. We call the userinfo endpoint with that token to get a VERIFIED
//     profile.
//
// The code itself is never treated as an identity. An authorization code is
// opaque, single-use, and unverified — anything derived from it directly
// would be worthless on the next login and forgeable on the first. Only the
// profile that Google hands back after the exchange counts.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// ClientID and ClientSecret come from the Google Cloud console; callbackURL
// must exactly match an authorized redirect URI configured there, e.g.
// "http://localhost:8080/auth/google/callback".
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// AuthURL returns the URL to redirect the user to for authorization. The
// state is verified on callback; see StateSigner.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for a verified
// Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the bearer
	// token to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned a profile with no subject")
	}

	return &gUser, nil
}
