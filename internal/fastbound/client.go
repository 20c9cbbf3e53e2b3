package fastbound

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthShape selects which HTTP Basic credential layout to send. The API
// accepts two shapes depending on the endpoint family.
type AuthShape int

const (
	// AuthKeyOnly sends an empty username with the API key as password.
	// This is the shape for the account-scoped CRUD endpoints.
	AuthKeyOnly AuthShape = iota

	// AuthAccountKey sends account:key, the shape used by the bound-book
	// download endpoint.
	AuthAccountKey
)

const (
	// APIKeyLength is the length of a well-formed API key. A different
	// length almost always means a partial copy-paste; callers warn but
	// proceed, since the server is the authority.
	APIKeyLength = 43

	DefaultServer        = "https://cloud.fastbound.com"
	DefaultTimeout       = 30 * time.Second
	DefaultMax429Retries = 5

	userAgent = "FastBound-Support"
)

// Config carries everything needed to talk to one FastBound account.
type Config struct {
	Server    string
	Account   string
	APIKey    string
	AuditUser string // attributed to every write, required upstream
	Auth      AuthShape

	Timeout       time.Duration
	Max429Retries int
	RateMargin    int

	// SuppressDispositionEmails adds the opt-out header on disposition
	// creation so bulk imports do not spam transferees.
	SuppressDispositionEmails bool
}

// Client is a rate-limited client for the FastBound REST API. All requests
// are sequential by design: the quota is shared per account, so pacing one
// request stream is safer than parallelizing and bursting.
type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *RateLimiter
	logger  *zap.Logger
}

// New creates a Client. The audit user is attached to every request since
// the upstream system requires it for all writes and ignores it on reads.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Max429Retries <= 0 {
		cfg.Max429Retries = DefaultMax429Retries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Server, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetHeader("X-AuditUser", cfg.AuditUser)

	switch cfg.Auth {
	case AuthAccountKey:
		hc.SetBasicAuth(cfg.Account, cfg.APIKey)
	default:
		hc.SetBasicAuth("", cfg.APIKey)
	}

	return &Client{
		http:    hc,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateMargin, logger),
		logger:  logger,
	}
}

// RateLimiter exposes the limiter, mainly for tests and status logging.
func (c *Client) RateLimiter() *RateLimiter { return c.limiter }

// accountPath prefixes a path with the account segment: /{account}/api/...
func (c *Client) accountPath(p string) string {
	return "/" + url.PathEscape(c.cfg.Account) + "/api" + p
}

// apiResult is the decoded outcome of a successful call: a JSON body, an ID
// recovered from a Location header, or neither (e.g. 204).
type apiResult struct {
	status int
	body   []byte
	id     string
}

// do issues one API call with rate limiting and bounded 429 retry. Each 429
// is retried once after blocking to the window reset, up to Max429Retries
// per logical request; the original scripts retried unbounded, which is a
// hang when the server misbehaves.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body any) (*apiResult, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		req := c.http.R().SetContext(ctx)
		if len(query) > 0 {
			req.SetQueryParamsFromValues(query)
		}
		for k, v := range headers {
			req.SetHeader(k, v)
		}
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		c.limiter.RecordHeaders(resp.Header())

		status := resp.StatusCode()
		if status == http.StatusTooManyRequests {
			if attempt >= c.cfg.Max429Retries {
				return nil, fmt.Errorf("%s %s: %w", method, path, ErrMaxRetries)
			}
			c.logger.Warn("request throttled, will retry after reset",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
			)
			if err := c.limiter.BlockUntilReset(ctx); err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			continue
		}

		if status >= 200 && status < 300 {
			res := &apiResult{status: status}
			if b := bytes.TrimSpace(resp.Body()); len(b) > 0 {
				res.body = b
			} else if loc := resp.Header().Get("Location"); loc != "" {
				res.id = trailingGUID(loc)
			}
			return res, nil
		}

		msg := parseErrorMessage(resp.Body())
		if status == http.StatusBadRequest && isPlanLimitMessage(msg) {
			return nil, &PlanLimitError{Message: msg}
		}
		return nil, &APIError{Method: method, Path: path, Status: status, Message: msg}
	}
}

// trailingGUID extracts the final path segment of a Location header and
// returns it only if it is a well-formed GUID.
func trailingGUID(location string) string {
	seg := location
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.IndexAny(seg, "?#"); i >= 0 {
		seg = seg[:i]
	}
	id, err := uuid.Parse(seg)
	if err != nil {
		return ""
	}
	return id.String()
}
