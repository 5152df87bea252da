package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentx-labs/extplan/internal/extension"
	xlog "github.com/agentx-labs/extplan/internal/log"
	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/version"
)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultCacheTTL is how long descriptors and version pages are reused.
	DefaultCacheTTL = 10 * time.Minute
)

// Client is a RemoteRepository backed by an HTTP/JSON extension API. It is
// safe for concurrent use.
type Client struct {
	id         string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	cacheTTL   time.Duration
	cache      *gocache.Cache
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithCacheTTL sets how long responses are cached. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(cl *Client) {
		cl.cacheTTL = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a client for the repository id rooted at baseURL.
func New(id, baseURL string, opts ...Option) *Client {
	c := &Client{
		id:         id,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		cacheTTL:   DefaultCacheTTL,
		userAgent:  "extplan",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheTTL > 0 {
		c.cache = gocache.New(c.cacheTTL, 2*c.cacheTTL)
	}
	c.logger = xlog.For(c.logger, xlog.CatRemote).With("repository", id)
	return c
}

func (c *Client) ID() string { return c.id }

// Resolve fetches the descriptor of id satisfying constraint. An exact
// constraint is fetched directly; otherwise the highest listed version
// satisfying it is chosen.
func (c *Client) Resolve(ctx context.Context, id string, constraint version.Constraint) (*extension.Extension, error) {
	v, ok := constraint.Exact()
	if !ok {
		page, err := c.versions(ctx, id, 0, -1)
		if err != nil {
			return nil, err
		}
		var best *version.Version
		for _, candidate := range page.versions() {
			if constraint.Contains(candidate) && (best == nil || best.Less(candidate)) {
				best = &candidate
			}
		}
		if best == nil {
			return nil, fmt.Errorf("%s@%s in repository %s: %w", id, constraint, c.id, repository.ErrNotFound)
		}
		v = *best
	}
	return c.descriptor(ctx, id, v)
}

// ResolveVersions lists versions of id as ordered by the server. Offset and
// total hits are taken from the response.
func (c *Client) ResolveVersions(ctx context.Context, id string, offset, limit int) (*repository.IterableResult[version.Version], error) {
	page, err := c.versions(ctx, id, offset, limit)
	if err != nil {
		return nil, err
	}
	return repository.SliceResult(page.Offset, page.TotalHits, page.versions()), nil
}

func (c *Client) versions(ctx context.Context, id string, offset, limit int) (versionsPayload, error) {
	key := fmt.Sprintf("versions:%s:%d:%d", id, offset, limit)
	if cached, ok := c.cached(key); ok {
		if page, ok := cached.(versionsPayload); ok {
			return page, nil
		}
	}

	q := url.Values{}
	q.Set("start", strconv.Itoa(offset))
	q.Set("number", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/extensions/%s/versions?%s", c.baseURL, url.PathEscape(id), q.Encode())

	var page versionsPayload
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return versionsPayload{}, fmt.Errorf("versions of %s: %w", id, err)
	}
	c.store(key, page)
	return page, nil
}

func (c *Client) descriptor(ctx context.Context, id string, v version.Version) (*extension.Extension, error) {
	key := "descriptor:" + id + "/" + v.String()
	if cached, ok := c.cached(key); ok {
		if ext, ok := cached.(*extension.Extension); ok {
			return ext, nil
		}
	}

	endpoint := fmt.Sprintf("%s/extensions/%s/versions/%s", c.baseURL, url.PathEscape(id), url.PathEscape(v.String()))

	var payload descriptorPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", id, v, err)
	}
	ext, err := payload.extension(c.id)
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor %s/%s: %w", id, v, err)
	}
	c.store(key, ext)
	return ext, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("querying repository %s: %w", c.id, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("repository request", "url", endpoint, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("repository %s: %w", c.id, repository.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("repository %s returned status %d", c.id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

func (c *Client) cached(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if ok {
		c.logger.Debug("cache hit", "key", key)
	}
	return v, ok
}

func (c *Client) store(key string, v any) {
	if c.cache != nil {
		c.cache.SetDefault(key, v)
	}
}
