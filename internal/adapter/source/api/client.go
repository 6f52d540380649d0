package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/mmcdole/cinelog/internal/domain"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
	maxErrorBody      = 512
)

// StatusError is returned for non-2xx responses without a dedicated sentinel
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client talks to the tracking backend's REST API
type Client struct {
	baseURL    string
	session    domain.Session
	httpClient *http.Client
	retries    uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry sets how often 5xx responses are retried and the base backoff delay
func WithRetry(retries uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.retryDelay = delay
	}
}

// NewClient creates a client bound to a session.
// baseURL includes the common API prefix (e.g., https://host/api).
func NewClient(baseURL string, sess domain.Session, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    sess,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the identity this client sends
func (c *Client) Session() domain.Session {
	return c.session
}

// WithSession returns a copy of the client bound to another session.
// The receiver is left untouched.
func (c *Client) WithSession(sess domain.Session) *Client {
	cp := *c
	cp.session = sess
	return &cp
}

// request describes one API call
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool // requires a session token
}

// doRequest performs an HTTP request against the API.
// 5xx responses are retried with exponential backoff; every other failure is final.
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	if r.auth && c.session.Anonymous() {
		return nil, domain.ErrAnonymous
	}

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	requestID := uuid.NewString()
	logger := c.logger.With("requestId", requestID, "method", r.method, "path", r.path)

	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.attempt(ctx, r, reqURL, payload, requestID)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.retries+1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("server error, will retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("api request failed", "error", err)
		return nil, err
	}

	logger.Debug("api request", "bytes", len(body))
	return body, nil
}

// attempt performs a single round trip and classifies the outcome
func (c *Client) attempt(ctx context.Context, r request, reqURL string, payload []byte, requestID string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, reader)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.session.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Unrecoverable(ctx.Err())
		}
		c.logger.Error("api request failed", "requestId", requestID, "path", r.path, "error", err)
		return nil, retry.Unrecoverable(fmt.Errorf("%w: %v", domain.ErrServerOffline, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, retry.Unrecoverable(domain.ErrAuthFailed)
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(domain.ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return nil, retry.Unrecoverable(domain.ErrConflict)
	}

	statusErr := &StatusError{
		Method:     r.method,
		Path:       r.path,
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body), maxErrorBody),
	}
	if resp.StatusCode >= 500 {
		return nil, statusErr
	}

	c.logger.Error("api request error", "requestId", requestID, "status", resp.StatusCode, "body", statusErr.Body)
	return nil, retry.Unrecoverable(statusErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func decode[T any](body []byte, what string) (T, error) {
	var v T
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", what, err)
	}
	return v, nil
}

// === Suggestions ===

// Suggest returns autocomplete hits for a query
func (c *Client) Suggest(ctx context.Context, query string) ([]domain.Suggestion, error) {
	body, err := c.doRequest(ctx, request{
		method: http.MethodGet,
		path:   "/suggestions",
		query:  url.Values{"query": {query}},
	})
	if err != nil {
		return nil, err
	}

	dtos, err := decode[[]suggestionDTO](body, "suggestions")
	if err != nil {
		return nil, err
	}
	return mapSuggestions(dtos), nil
}

// === Likes ===

func likePath(logID string) string {
	return "/logs/" + url.PathEscape(logID) + "/like"
}

// LikeStatus reports whether the session user liked the log entry
func (c *Client) LikeStatus(ctx context.Context, logID string) (bool, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: likePath(logID) + "/status", auth: true})
	if err != nil {
		return false, err
	}
	dto, err := decode[likeStatusDTO](body, "like status")
	return dto.IsLiked, err
}

// LikeCount returns the public like tally of a log entry
func (c *Client) LikeCount(ctx context.Context, logID string) (int, error) {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: "/logs/" + url.PathEscape(logID) + "/likes"})
	if err != nil {
		return 0, err
	}
	dto, err := decode[likeCountDTO](body, "like count")
	if err != nil {
		return 0, err
	}
	if dto.LikeCount == nil {
		return 0, nil
	}
	return *dto.LikeCount, nil
}

// Like likes a log entry and returns the server count if it sent one
func (c *Client) Like(ctx context.Context, logID string) (*int, error) {
	return c.likeAction(ctx, http.MethodPost, logID)
}

// Unlike removes the like and returns the server count if it sent one
func (c *Client) Unlike(ctx context.Context, logID string) (*int, error) {
	return c.likeAction(ctx, http.MethodDelete, logID)
}

func (c *Client) likeAction(ctx context.Context, method, logID string) (*int, error) {
	body, err := c.doRequest(ctx, request{method: method, path: likePath(logID), auth: true})
	if err != nil {
		return nil, err
	}
	dto, err := decode[likeCountDTO](body, "like response")
	if err != nil {
		return nil, err
	}
	return dto.LikeCount, nil
}

// === Watchlist ===

// WatchlistStatus reports whether ref is in the user's watchlist and its item ID
func (c *Client) WatchlistStatus(ctx context.Context, ref domain.ContentRef) (bool, string, error) {
	path := fmt.Sprintf("/watchlist/status/%s/%d", ref.Type, ref.ID)
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: path, auth: true})
	if err != nil {
		return false, "", err
	}
	dto, err := decode[watchlistStatusDTO](body, "watchlist status")
	if err != nil {
		return false, "", err
	}
	return dto.IsInWatchlist, string(dto.ItemID), nil
}

// AddToWatchlist adds ref and returns the new item ID (empty if the server omitted it)
func (c *Client) AddToWatchlist(ctx context.Context, ref domain.ContentRef) (string, error) {
	body, err := c.doRequest(ctx, request{
		method: http.MethodPost,
		path:   "/watchlist",
		body:   watchlistAddRequest{ContentID: ref.ID, ContentType: string(ref.Type)},
		auth:   true,
	})
	if err != nil {
		return "", err
	}
	dto, err := decode[watchlistAddDTO](body, "watchlist item")
	if err != nil {
		return "", err
	}
	return dto.itemID(), nil
}

// RemoveFromWatchlist deletes a watchlist item
func (c *Client) RemoveFromWatchlist(ctx context.Context, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("watchlist item id is required")
	}
	_, err := c.doRequest(ctx, request{
		method: http.MethodDelete,
		path:   "/watchlist/" + url.PathEscape(itemID),
		auth:   true,
	})
	return err
}

// === Logs ===

// Logs returns the session user's log entries for ref
func (c *Client) Logs(ctx context.Context, ref domain.ContentRef) ([]domain.LogEntry, error) {
	body, err := c.doRequest(ctx, request{
		method: http.MethodGet,
		path:   "/logs",
		query: url.Values{
			"contentId":   {strconv.Itoa(ref.ID)},
			"contentType": {string(ref.Type)},
		},
		auth: true,
	})
	if err != nil {
		return nil, err
	}

	dtos, err := decode[[]logDTO](body, "logs")
	if err != nil {
		return nil, err
	}
	return mapLogs(dtos), nil
}

// CreateLog posts a new log entry. The draft is expected to be validated already.
func (c *Client) CreateLog(ctx context.Context, draft domain.LogDraft) (*domain.LogEntry, error) {
	body, err := c.doRequest(ctx, request{
		method: http.MethodPost,
		path:   "/logs",
		body:   newCreateLogRequest(draft),
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	dto, err := decode[logDTO](body, "created log")
	if err != nil {
		return nil, err
	}
	entry := mapLog(dto)
	return &entry, nil
}

// === Content detail ===

// ContentDetail fetches /movies/{id} or /tv/{id}
func (c *Client) ContentDetail(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	var path string
	switch ref.Type {
	case domain.ContentTypeMovie:
		path = fmt.Sprintf("/movies/%d", ref.ID)
	case domain.ContentTypeTV:
		path = fmt.Sprintf("/tv/%d", ref.ID)
	default:
		return nil, fmt.Errorf("unknown content type: %q", ref.Type)
	}

	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	dto, err := decode[detailDTO](body, "content detail")
	if err != nil {
		return nil, err
	}
	return mapDetail(ref, dto), nil
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
