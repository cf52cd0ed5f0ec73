package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// SignatureHeader carries hex(HMAC-SHA256(secret, timestamp + "\n" + body))
	SignatureHeader = "X-Portfolio-Signature"
	// TimestampHeader carries the RFC3339 signing time
	TimestampHeader = "X-Portfolio-Timestamp"

	maxWebhookBody = 1 << 20
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AdminKey is set on the echo context once a request is authenticated
	AdminKey ContextKey = "admin"
)

// errorBody matches the handlers' structured error shape
func errorBody(code, message string) map[string]string {
	return map[string]string{"error": message, "code": code}
}

// AdminAuth requires an Authorization: Bearer token from tokens. A missing
// token is 401, an unknown token is 403. Rejection happens before the
// handler runs.
func AdminAuth(tokens []string) echo.MiddlewareFunc {
	allowed := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, []byte(t))
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "missing bearer token"))
			}

			for _, a := range allowed {
				if subtle.ConstantTimeCompare(a, []byte(token)) == 1 {
					c.Set(string(AdminKey), true)
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorBody("forbidden", "admin privileges required"))
		}
	}
}

// WebhookSignature verifies the HMAC signature of webhook deliveries. An
// empty secret disables verification. now may be nil.
func WebhookSignature(secret string, maxSkew time.Duration, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}

			req := c.Request()
			body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorBody("invalid_body", "could not read body"))
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			msg := verifySignature(secret, req.Header.Get(TimestampHeader), req.Header.Get(SignatureHeader), body, now(), maxSkew)
			if msg != "" {
				return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", msg))
			}
			return next(c)
		}
	}
}

// Sign returns the signature header value for body at timestamp
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret, timestamp, signature string, body []byte, now time.Time, maxSkew time.Duration) string {
	if timestamp == "" || signature == "" {
		return "missing signature headers"
	}
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return "invalid signature timestamp"
	}
	delta := now.Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	if maxSkew > 0 && delta > maxSkew {
		return "request outside replay window"
	}

	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return "signature mismatch"
	}
	return ""
}
