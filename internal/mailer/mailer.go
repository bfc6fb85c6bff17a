// Package mailer calls the outbound email function that relays contact form submissions.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio/internal/config"
)

// ErrNotConfigured is returned when no function URL is set.
var ErrNotConfigured = errors.New("email function not configured")

// ContactEmail 是发送给邮件函数的请求体。
type ContactEmail struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Result mirrors the function response: {message} on success, {error} on failure.
type Result struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client 通过 HTTP 调用邮件函数。
type Client struct {
	url        string
	key        string
	httpClient *http.Client
}

// New builds a client from config; a zero timeout falls back to 10s.
func New(cfg config.EmailConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        strings.TrimSpace(cfg.FunctionURL),
		key:        strings.TrimSpace(cfg.FunctionKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a function URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// SendContactEmail 发送留言通知邮件。非 2xx 或响应中带 error 字段时返回错误。
func (c *Client) SendContactEmail(ctx context.Context, email ContactEmail) (Result, error) {
	if !c.Enabled() {
		return Result{}, ErrNotConfigured
	}

	body, err := json.Marshal(email)
	if err != nil {
		return Result{}, fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call email function: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Result{}, fmt.Errorf("read email function response: %w", err)
	}

	var result Result
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil && resp.StatusCode < 300 {
			return Result{}, fmt.Errorf("decode email function response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := result.Error
		if reason == "" {
			reason = strings.TrimSpace(string(raw))
		}
		return result, fmt.Errorf("email function status %d: %s", resp.StatusCode, reason)
	}
	if result.Error != "" {
		return result, fmt.Errorf("email function error: %s", result.Error)
	}
	return result, nil
}
