// Package smsgw is the smsc.kz gateway client. Delivery is best-effort: the
// caller's success path never depends on the gateway answering.
package smsgw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	login    string
	password string
	sender   string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

func NewClient(login, password, sender, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		login:    login,
		password: password,
		sender:   sender,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type sendResponse struct {
	ID    json.Number `json:"id"`
	Error string      `json:"error"`
}

// Send delivers one SMS. The phone number is normalized to the Kazakhstan
// +77XXXXXXXXX form before dispatch.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	start := time.Now()
	recipient := NormalizePhone(phone)

	q := url.Values{}
	q.Set("login", c.login)
	q.Set("psw", c.password)
	q.Set("phones", recipient)
	q.Set("mes", message)
	q.Set("fmt", "3") // JSON response
	q.Set("charset", "utf-8")
	q.Set("sender", c.sender)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("sms gateway unreachable",
			zap.String("recipient", recipient),
			zap.Error(err))
		return fmt.Errorf("sms http error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("sms gateway returned malformed response",
			zap.String("recipient", recipient),
			zap.ByteString("body", body))
		return fmt.Errorf("sms response parse: %w", err)
	}
	if parsed.Error != "" {
		c.logger.Warn("sms gateway rejected message",
			zap.String("recipient", recipient),
			zap.String("gateway_error", parsed.Error))
		return fmt.Errorf("sms gateway error: %s", parsed.Error)
	}

	c.logger.Info("sms sent",
		zap.String("recipient", recipient),
		zap.String("message_id", parsed.ID.String()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone keeps the last 10 digits and prefixes the Kazakhstan
// country code, so "8 (707) 123-45-67" and "+77071234567" both normalize to
// "+77071234567".
func NormalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) == 10 {
		return "+77" + digits[1:]
	}
	return digits
}
