// Package apiclient forwards submissions, registrations and admin logins to
// a remote backend. Every failure, whether a network error or a non-2xx
// status, is reported as a transport error; there is no retry.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/platform/circuit"
)

// Backend endpoints, relative to the base URL.
const (
	EndpointSubmitAbstract = "/submit-abstract"
	EndpointRegister       = "/register"
	EndpointLogin          = "/admin/login"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type SubmitResult struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

// File is an uploaded document forwarded as a multipart part.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type Client struct {
	baseURL string
	doer    HTTPDoer
	tracer  trace.Tracer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(d HTTPDoer) Option {
	return func(c *Client) { c.doer = d }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithBreaker records every call outcome on b. Only transport failures count
// as failures; a rejected login means the backend answered.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = &http.Client{Timeout: defaultTimeout}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("aieni/apiclient")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Health reports an error while recent backend calls have been failing.
func (c *Client) Health(context.Context) error {
	if c.breaker == nil {
		return nil
	}
	return c.breaker.Check()
}

// Submit posts payload as JSON.
func (c *Client) Submit(ctx context.Context, endpoint string, payload any) (SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
	}
	var out SubmitResult
	err = c.do(ctx, "apiclient.Submit", endpoint, "application/json", bytes.NewReader(body), &out)
	return out, err
}

// SubmitForm posts data as a JSON "data" field plus an optional file part.
func (c *Client) SubmitForm(ctx context.Context, endpoint string, data any, file *File) (SubmitResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		h.Set("Content-Type", file.ContentType)
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = part.Write(file.Data)
		}
		if err != nil {
			return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode upload")
		}
	}
	if err := mw.WriteField("data", string(raw)); err != nil {
		return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
	}
	if err := mw.Close(); err != nil {
		return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
	}

	var out SubmitResult
	err = c.do(ctx, "apiclient.SubmitForm", endpoint, mw.FormDataContentType(), &buf, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, endpoint string, creds Credentials) (LoginResult, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
	}
	var out LoginResult
	err = c.do(ctx, "apiclient.Login", endpoint, "application/json", bytes.NewReader(body), &out)
	return out, err
}

func (c *Client) do(ctx context.Context, spanName, endpoint, contentType string, body io.Reader, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.path", endpoint),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.record(ctx, endpoint, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "backend request failed")
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &dErrors.Error{
			Code:    dErrors.CodeTransport,
			Message: "backend request failed",
			Err:     fmt.Errorf("%s %s: status %d: %s", http.MethodPost, endpoint, resp.StatusCode, bytes.TrimSpace(snippet)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return dErrors.Wrap(err, dErrors.CodeTransport, "backend returned an unreadable response")
	}
	return nil
}

func (c *Client) record(ctx context.Context, endpoint string, err error) {
	if c.breaker == nil {
		return
	}
	change := c.breaker.Record(dErrors.HasCode(err, dErrors.CodeTransport))
	switch {
	case change.Opened:
		c.logger.WarnContext(ctx, "backend circuit opened",
			"breaker", c.breaker.Name(),
			"endpoint", endpoint,
			"error", err,
		)
	case change.Closed:
		c.logger.InfoContext(ctx, "backend circuit closed",
			"breaker", c.breaker.Name(),
		)
	}
}
