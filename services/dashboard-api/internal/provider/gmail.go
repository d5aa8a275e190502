package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/metrics"
)

var metadataHeaders = []string{"Subject", "From", "Date"}

// GmailProvider implements Provider on the Gmail REST API.
type GmailProvider struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewGmailProvider creates a Gmail client. An empty endpoint targets Google;
// anything else (for example the mock server) replaces the API base URL.
func NewGmailProvider(endpoint string, log *zap.Logger) *GmailProvider {
	if log == nil {
		log = zap.NewNop()
	}
	if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &GmailProvider{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// WithHTTPClient replaces the base transport client.
func (g *GmailProvider) WithHTTPClient(c *http.Client) *GmailProvider {
	g.client = c
	return g
}

func (g *GmailProvider) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	if accessToken == "" {
		return nil, &apperr.AuthError{Op: "gmail", Err: errors.New("access token is required")}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, g.client), ts)
	httpClient.Timeout = g.client.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// FetchEmails implements Provider.FetchEmails for Gmail
func (g *GmailProvider) FetchEmails(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailData, error) {
	msgs, err := g.fetch(ctx, accessToken, maxResults, query, "metadata")
	if err != nil {
		return nil, err
	}

	emails := make([]models.EmailData, 0, len(msgs))
	for _, m := range msgs {
		emails = append(emails, toEmailData(m))
	}
	return emails, nil
}

// FetchEmailsWithContent implements Provider.FetchEmailsWithContent for Gmail
func (g *GmailProvider) FetchEmailsWithContent(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailDataWithContent, error) {
	msgs, err := g.fetch(ctx, accessToken, maxResults, query, "full")
	if err != nil {
		return nil, err
	}

	emails := make([]models.EmailDataWithContent, 0, len(msgs))
	for _, m := range msgs {
		emails = append(emails, models.EmailDataWithContent{
			EmailData: toEmailData(m),
			Body:      extractBody(m.Payload),
		})
	}
	return emails, nil
}

// Profile implements Provider.Profile for Gmail
func (g *GmailProvider) Profile(ctx context.Context, accessToken string) (string, error) {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return "", err
	}
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", classify("get profile", err)
	}
	return profile.EmailAddress, nil
}

func (g *GmailProvider) fetch(ctx context.Context, accessToken string, maxResults int, query, format string) ([]*gmail.Message, error) {
	start := time.Now()
	msgs, err := g.fetchMessages(ctx, accessToken, NormalizeMaxResults(maxResults), query, format)
	metrics.ObserveGmailFetch(outcome(err), time.Since(start))
	if err != nil {
		g.log.Warn("Gmail fetch failed",
			zap.String("format", format),
			zap.Bool("has_query", query != ""),
			zap.Error(err),
		)
		return nil, err
	}

	g.log.Debug("Gmail fetch complete",
		zap.String("format", format),
		zap.Int("messages", len(msgs)),
		zap.Duration("duration", time.Since(start)),
	)
	return msgs, nil
}

func (g *GmailProvider) fetchMessages(ctx context.Context, accessToken string, limit int, query, format string) ([]*gmail.Message, error) {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.List("me").MaxResults(int64(limit)).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, classify("list messages", err)
	}

	refs := resp.Messages
	if len(refs) > limit {
		refs = refs[:limit]
	}

	msgs := make([]*gmail.Message, 0, len(refs))
	for _, ref := range refs {
		get := svc.Users.Messages.Get("me", ref.Id).Format(format).Context(ctx)
		if format == "metadata" {
			get = get.MetadataHeaders(metadataHeaders...)
		}
		msg, err := get.Do()
		if err != nil {
			return nil, classify("get message "+ref.Id, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func toEmailData(m *gmail.Message) models.EmailData {
	email := models.EmailData{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
		LabelIDs: m.LabelIds,
	}
	if email.LabelIDs == nil {
		email.LabelIDs = []string{}
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				email.Subject = h.Value
			case "from":
				email.From = h.Value
			case "date":
				email.Date = h.Value
			}
		}
	}
	return email
}

// extractBody prefers the first text/plain part and falls back to text/html.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if plain := findPart(part, "text/plain"); plain != "" {
		return plain
	}
	return findPart(part, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBody(part.Body.Data); err == nil {
			return decoded
		}
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// Gmail returns base64url bodies, sometimes without padding.
func decodeBody(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classify maps Gmail API failures onto the error taxonomy.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &apperr.UpstreamError{Op: op, Err: err}
	}

	switch apiErr.Code {
	case http.StatusUnauthorized:
		return &apperr.AuthError{Op: op, Err: err}
	case http.StatusTooManyRequests:
		return &apperr.RateLimitError{Op: op, Err: err}
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if rateLimitReasons[item.Reason] {
				return &apperr.RateLimitError{Op: op, Err: err}
			}
		}
	}
	return &apperr.UpstreamError{Op: op, Status: apiErr.Code, Err: err}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperr.IsAuth(err):
		return "auth_error"
	case apperr.IsRateLimit(err):
		return "rate_limited"
	default:
		return "upstream_error"
	}
}
