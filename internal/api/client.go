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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/soratui/internal/output"
)

// VideoService defines the three remote operations the workflow relies on.
// It is implemented by *Client and can be faked in tests.
type VideoService interface {
	Submit(ctx context.Context, req CreateRequest) (Job, error)
	GetStatus(ctx context.Context, id string) (Job, error)
	Download(ctx context.Context, id, dest string, opts ...DownloadOption) error
}

// Ensure Client implements VideoService at compile time.
var _ VideoService = (*Client)(nil)

const (
	defaultUserAgent = "soratui/0.1"
	requestIDHeader  = "X-Request-ID"

	opCreate   = "create video"
	opStatus   = "get video status"
	opDownload = "download video"
)

// Client talks to the video generation HTTP API.
type Client struct {
	baseURL   *url.URL
	endpoint  string
	profile   Profile
	apiKey    string
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithProfile selects the wire contract.
func WithProfile(p Profile) Option {
	return func(c *Client) { c.profile = p }
}

// WithEndpoint overrides the profile's base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		profile:   DefaultProfile(),
		apiKey:    key,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	endpoint := strings.TrimSpace(c.endpoint)
	if endpoint == "" {
		endpoint = c.profile.BaseURL
	}
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	c.baseURL = base
	return c, nil
}

// Endpoint returns the resolved service root.
func (c *Client) Endpoint() string {
	return c.baseURL.String()
}

// Profile returns the wire contract in use.
func (c *Client) Profile() Profile {
	return c.profile
}

// Submit creates a video job. Voice and style are only sent when non-empty.
func (c *Client) Submit(ctx context.Context, req CreateRequest) (Job, error) {
	body := map[string]any{c.profile.ScriptField: req.Script}
	if req.Voice != "" {
		body["voice"] = req.Voice
	}
	if req.Style != "" {
		body["style"] = req.Style
	}
	if c.profile.Model != "" {
		body["model"] = c.profile.Model
	}
	job, err := c.doJSON(ctx, opCreate, http.MethodPost, c.videosURL(), body)
	if err != nil {
		return Job{}, err
	}
	c.logger.Info("video created", "job_id", job.ID, "status", job.Status)
	return job, nil
}

// GetStatus fetches the current state of a job.
func (c *Client) GetStatus(ctx context.Context, id string) (Job, error) {
	if strings.TrimSpace(id) == "" {
		return Job{}, fmt.Errorf("%s: job id required", opStatus)
	}
	return c.doJSON(ctx, opStatus, http.MethodGet, c.videosURL(id), nil)
}

// DownloadOption customizes a download.
type DownloadOption func(*downloadConfig)

type downloadConfig struct {
	progress func(total int64) io.Writer
}

// WithProgress tees streamed bytes into the writer returned by fn. total is
// the advertised content length, or -1 when unknown.
func WithProgress(fn func(total int64) io.Writer) DownloadOption {
	return func(cfg *downloadConfig) { cfg.progress = fn }
}

// Download streams a completed job's video to dest. A job that has not
// completed yields a NotReadyError without touching the download URL or dest.
func (c *Client) Download(ctx context.Context, id, dest string, opts ...DownloadOption) error {
	var cfg downloadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	job, err := c.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if !job.Completed() {
		return &NotReadyError{JobID: id, Status: job.Status}
	}
	target, err := c.resolveDownloadURL(job.DownloadURL)
	if err != nil {
		return &RequestError{Op: opDownload, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", opDownload, err)
	}
	reqID := c.setHeaders(req)
	// Pre-signed CDN links must not receive the API key.
	if strings.EqualFold(target.Host, c.baseURL.Host) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: opDownload, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if !success(resp.StatusCode) {
		return newStatusError(opDownload, resp)
	}

	file, err := output.Create(dest)
	if err != nil {
		return fmt.Errorf("%s: %w", opDownload, err)
	}
	var w io.Writer = file
	if cfg.progress != nil {
		if pw := cfg.progress(resp.ContentLength); pw != nil {
			w = io.MultiWriter(file, pw)
		}
	}
	written, copyErr := io.Copy(w, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return &RequestError{Op: opDownload, Err: copyErr}
	}
	if closeErr != nil {
		return fmt.Errorf("%s: close %s: %w", opDownload, dest, closeErr)
	}

	c.logger.Info("video downloaded",
		"job_id", id,
		"path", dest,
		"bytes", written,
		"request_id", reqID,
		"elapsed", time.Since(start),
	)
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, target string, payload any) (Job, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return Job{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Job{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	reqID := c.setHeaders(req)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "op", op, "url", target, "request_id", reqID, "error", err)
		return Job{}, &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request",
		"op", op,
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start),
	)
	if !success(resp.StatusCode) {
		reqErr := newStatusError(op, resp)
		c.logger.Warn("api request rejected", "op", op, "status", resp.StatusCode, "request_id", reqID, "body", reqErr.Body)
		return Job{}, reqErr
	}

	job, err := decodeJob(resp.Body, c.profile)
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", op, err)
	}
	return job, nil
}

func (c *Client) setHeaders(req *http.Request) string {
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, reqID)
	return reqID
}

func (c *Client) videosURL(id ...string) string {
	elems := []string{c.profile.BasePath, "videos"}
	for _, v := range id {
		elems = append(elems, url.PathEscape(v))
	}
	return c.baseURL.JoinPath(elems...).String()
}

func (c *Client) resolveDownloadURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("completed video has no download url")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse download url: %w", err)
	}
	return c.baseURL.ResolveReference(ref), nil
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", endpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
