package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultPostmarkBaseURL = "https://api.postmarkapp.com"
	mailRequestTimeout     = 30 * time.Second
	mailMaxRetries         = 1
	mailRetryBackoff       = 2 * time.Second

	// Postmark allows far more, but one digest per run needs very little.
	mailRateLimit = 1
	mailRateBurst = 2
)

// PostmarkSender implements Sender using Postmark's HTTP email API.
type PostmarkSender struct {
	serverToken  string
	fromEmail    string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
}

// NewPostmarkSender creates a Sender that delivers through Postmark using the
// given server token. Mail is sent from fromEmail, which must be a sender
// signature registered with the Postmark account.
func NewPostmarkSender(serverToken, fromEmail string) *PostmarkSender {
	return &PostmarkSender{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     defaultPostmarkBaseURL,
		httpClient: &http.Client{
			Timeout: mailRequestTimeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(mailRateLimit), mailRateBurst),
		maxRetries:   mailMaxRetries,
		retryBackoff: mailRetryBackoff,
	}
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Send delivers a plain-text email, retrying once on transient failures
// (network errors and 5xx responses). Client-side rejections (4xx) are
// returned immediately.
func (s *PostmarkSender) Send(ctx context.Context, to, subject, body string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := postmarkEmail{
		From:          s.fromEmail,
		To:            to,
		Subject:       subject,
		TextBody:      body,
		MessageStream: "outbound",
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			log.Printf("WARN: [Mail] Retrying delivery to %s (attempt %d).", to, attempt+1)
		}

		retryable, err := s.doRequest(ctx, payload)
		if err == nil {
			log.Printf("INFO: [Mail] Delivered mail to %s (%q).", to, subject)
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return fmt.Errorf("mail delivery failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// doRequest performs one POST to Postmark's /email endpoint. The boolean
// result reports whether the failure is worth retrying.
func (s *PostmarkSender) doRequest(ctx context.Context, payload postmarkEmail) (bool, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/email", bytes.NewReader(encoded))
	if err != nil {
		return false, fmt.Errorf("building mail request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}

	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr postmarkError
	if jsonErr := json.Unmarshal(responseBody, &apiErr); jsonErr == nil && apiErr.Message != "" {
		err = fmt.Errorf("postmark rejected the mail (status %d, code %d): %s", resp.StatusCode, apiErr.ErrorCode, apiErr.Message)
	} else {
		err = fmt.Errorf("postmark returned status %d: %s", resp.StatusCode, responseBody)
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
}
