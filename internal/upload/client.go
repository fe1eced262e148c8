// Package upload sends an export payload to an Argilla-style annotation
// platform: it creates the dataset with its fields and questions, publishes
// it and upserts the records with their annotations as suggestions.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/gosimple/slug"
	"github.com/sethvargo/go-retry"

	"labelflow/internal/logger"
)

// APIKeyHeader carries the platform API key.
const APIKeyHeader = "X-Argilla-Api-Key"

// ErrUpload is matched by every UploadError.
var ErrUpload = errors.New("upload failed")

// UploadError reports a failed platform call with its cause attached.
type UploadError struct {
	Op     string
	Status int
	Err    error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload: %s: status %d: %v", e.Op, e.Status, e.Err)
	}

	return fmt.Sprintf("upload: %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpload) match.
func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// Settings configure a Client.
type Settings struct {
	URL        string        `validate:"required,url"`
	APIKey     string        `validate:"required"`
	Workspace  string        `validate:"required"`
	Dataset    string        `validate:"required"`
	Guidelines string        `validate:"-"`
	BatchSize  int           `validate:"min=1,max=1000"`
	Timeout    time.Duration `validate:"min=0"`
	MaxRetries int           `validate:"min=0,max=10"`
}

// Client talks to the platform REST API.
type Client struct {
	settings    Settings
	http        *resty.Client
	log         logger.Logger
	backoffBase time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithBackoffBase sets the first retry delay; later delays grow
// exponentially.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// New validates s and returns a client.
func New(s Settings, opts ...Option) (*Client, error) {
	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid upload settings: %w", err)
	}

	c := &Client{
		settings:    s,
		log:         logger.Discard(),
		backoffBase: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(s.URL, "/")).
		SetTimeout(s.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(APIKeyHeader, s.APIKey)

	return c, nil
}

// DatasetName derives a dataset name from an input file path.
func DatasetName(path string) string {
	base := filepath.Base(path)
	return slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
}

// retryable reports whether a status code is worth retrying.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.backoffBase)
	b = retry.WithJitterPercent(10, b)

	return retry.WithMaxRetries(uint64(c.settings.MaxRetries), b)
}

// call performs one API request, retrying network failures, 408, 429 and
// 5xx responses. result, when non-nil, receives the decoded body.
func (c *Client) call(ctx context.Context, op, method, path string, body, result any) error {
	attempt := 0

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++

		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}

		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			c.log.Warn("request failed", "op", op, "attempt", attempt, "err", err)
			return retry.RetryableError(&UploadError{Op: op, Err: err})
		}

		code := resp.StatusCode()
		if code < 400 {
			c.log.Debug("request completed", "op", op, "method", method, "path", path, "status", code)
			return nil
		}

		uerr := &UploadError{Op: op, Status: code, Err: errors.New(strings.TrimSpace(resp.String()))}
		if retryable(code) {
			c.log.Warn("request will be retried", "op", op, "attempt", attempt, "status", code)
			return retry.RetryableError(uerr)
		}

		return uerr
	})
	if err == nil {
		return nil
	}

	var uerr *UploadError
	if errors.As(err, &uerr) {
		return uerr
	}

	return &UploadError{Op: op, Err: err}
}
