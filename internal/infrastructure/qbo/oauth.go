package qbo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	intuitAuthURL   = "https://appcenter.intuit.com/connect/oauth2"
	intuitTokenURL  = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	accountingScope = "com.intuit.quickbooks.accounting"
)

var (
	ErrInvalidCode        = errors.New("invalid authorization code")
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrOAuthNotConfigured = errors.New("QuickBooks OAuth is not configured")
)

// OAuthConfig holds the Intuit app credentials. AuthURL and TokenURL
// default to the Intuit endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

// OAuth handles the Intuit authorization code flow and token refresh
type OAuth struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuth creates a new Intuit OAuth helper
func NewOAuth(cfg OAuthConfig) *OAuth {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = intuitAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = intuitTokenURL
	}

	return &OAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{accountingScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: cfg.HTTPClient,
	}
}

// IsConfigured checks if the Intuit app credentials are set
func (o *OAuth) IsConfigured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// AuthURL returns the Intuit consent URL for state
func (o *OAuth) AuthURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// ExchangeCode exchanges the callback code for a token pair
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if !o.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}
	token, err := o.config.Exchange(o.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return token, nil
}

// Refresh trades a refresh token for a new token pair. Intuit rotates the
// refresh token, so the returned one must replace the stored one.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if !o.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}
	expired := &oauth2.Token{RefreshToken: refreshToken}
	token, err := o.config.TokenSource(o.withClient(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return token, nil
}

func (o *OAuth) withClient(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}
