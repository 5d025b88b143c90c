// Package mailbox wraps the Gmail API behind the narrow Client interface the
// reconciliation engine consumes: list recent message ids matching a sender
// query, fetch one message with its plain-text body decoded.
package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type Message struct {
	ID      string
	From    string
	Subject string
	Body    string
}

type Client interface {
	// List returns message ids matching the Gmail search query, newest
	// first, capped at max.
	List(ctx context.Context, query string, max int64) ([]string, error)
	// Get fetches one message and decodes the first text/plain MIME part
	// (or the top-level body when the message has no parts).
	Get(ctx context.Context, id string) (*Message, error)
}

type GmailClient struct {
	svc *gmail.Service
}

type webCredentials struct {
	Web struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"web"`
}

type savedToken struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// NewGmailClient builds a read-only Gmail client from the OAuth web-app
// credentials and a previously authorized refresh token on disk.
func NewGmailClient(ctx context.Context, credentialsPath, tokenPath string) (*GmailClient, error) {
	credRaw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	var creds webCredentials
	if err := json.Unmarshal(credRaw, &creds); err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}

	tokenRaw, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	var tok savedToken
	if err := json.Unmarshal(tokenRaw, &tok); err != nil {
		return nil, fmt.Errorf("parse gmail token: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     firstNonEmpty(tok.ClientID, creds.Web.ClientID),
		ClientSecret: firstNonEmpty(tok.ClientSecret, creds.Web.ClientSecret),
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	if len(creds.Web.RedirectURIs) > 0 {
		conf.RedirectURL = creds.Web.RedirectURIs[0]
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build gmail service: %w", err)
	}
	return &GmailClient{svc: svc}, nil
}

func (c *GmailClient) List(ctx context.Context, query string, max int64) ([]string, error) {
	resp, err := c.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (c *GmailClient) Get(ctx context.Context, id string) (*Message, error) {
	m, err := c.svc.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if m.Payload == nil {
		return &Message{ID: id}, nil
	}

	msg := &Message{ID: id}
	for _, h := range m.Payload.Headers {
		switch h.Name {
		case "From":
			msg.From = h.Value
		case "Subject":
			msg.Subject = h.Value
		}
	}
	msg.Body = extractPlainText(m.Payload)
	return msg, nil
}

func extractPlainText(p *gmail.MessagePart) string {
	for _, part := range p.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	if p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	return ""
}

// Gmail serves body data base64url-encoded, with and without padding.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
