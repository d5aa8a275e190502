// Package oauth builds the Google consent URL and exchanges authorization codes.
package oauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/sumails/sumails/internal/apperr"
)

// DefaultScopes grants read access to the mailbox and its address.
var DefaultScopes = []string{
	gmail.GmailReadonlyScope,
	"https://www.googleapis.com/auth/userinfo.email",
}

// Config is the OAuth client registration. It is passed in explicitly so the
// issuer never reads the environment.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// Endpoint overrides Google's endpoints, mainly for tests.
	Endpoint *oauth2.Endpoint
}

type Issuer struct {
	cfg        Config
	httpClient *http.Client
}

func NewIssuer(cfg Config) *Issuer {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	return &Issuer{cfg: cfg}
}

// WithHTTPClient sets the client used for the token exchange.
func (i *Issuer) WithHTTPClient(c *http.Client) *Issuer {
	i.httpClient = c
	return i
}

func (i *Issuer) oauthConfig() (*oauth2.Config, error) {
	if i.cfg.ClientID == "" {
		return nil, &apperr.ConfigurationError{Key: "google.client_id"}
	}
	if i.cfg.RedirectURL == "" {
		return nil, &apperr.ConfigurationError{Key: "google.redirect_url"}
	}

	endpoint := google.Endpoint
	if i.cfg.Endpoint != nil {
		endpoint = *i.cfg.Endpoint
	}
	return &oauth2.Config{
		ClientID:     i.cfg.ClientID,
		ClientSecret: i.cfg.ClientSecret,
		RedirectURL:  i.cfg.RedirectURL,
		Scopes:       i.cfg.Scopes,
		Endpoint:     endpoint,
	}, nil
}

// AuthURL returns the consent URL a client should redirect to. It makes no
// network call. Offline access and forced consent make Google issue a refresh token.
func (i *Issuer) AuthURL() (string, error) {
	conf, err := i.oauthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for tokens.
func (i *Issuer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, apperr.Invalid("code", "is required")
	}
	conf, err := i.oauthConfig()
	if err != nil {
		return nil, err
	}
	if conf.ClientSecret == "" {
		return nil, &apperr.ConfigurationError{Key: "google.client_secret"}
	}

	if i.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, i.httpClient)
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
			return nil, &apperr.AuthError{Op: "exchange code", Err: err}
		}
		return nil, &apperr.UpstreamError{Op: "exchange code", Err: err}
	}
	return token, nil
}
