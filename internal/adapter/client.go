package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/pool"
)

const userAgent = "argus-panoptes/1.0"

// maxBodyBytes caps how much of a catalog response we will read. Catalog
// pages and SRU envelopes are small; anything past this is a broken server.
const maxBodyBytes = 4 << 20

// Client is the outbound HTTP client shared by all adapters. It enforces
// a per-system politeness limiter on top of the pool's concurrency caps
// and maps transport and status failures onto the adapter error taxonomy.
type Client struct {
	httpClient *http.Client
	limiters   *pool.SyncMap[domain.LibrarySystemId, *rate.Limiter]
	logger     *logger.Logger

	// politeness is the minimum spacing between requests to one system.
	politeness time.Duration
	burst      int
}

// NewClient creates the shared adapter client. Request deadlines come from
// the caller's context, so the underlying http.Client carries no timeout
// of its own.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		limiters:   pool.NewSyncMap[domain.LibrarySystemId, *rate.Limiter](),
		logger:     log,
		politeness: 250 * time.Millisecond,
		burst:      2,
	}
}

// Get fetches a URL on behalf of a system and returns the response body.
func (c *Client) Get(ctx context.Context, systemID domain.LibrarySystemId, rawURL string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, systemID, http.MethodGet, rawURL, "", nil, headers)
}

// GetJSON fetches a URL and decodes the JSON body into out. A body that
// fails to decode is a parse error.
func (c *Client) GetJSON(ctx context.Context, systemID domain.LibrarySystemId, rawURL string, headers map[string]string, out any) error {
	body, err := c.Get(ctx, systemID, rawURL, headers)
	if err != nil {
		return err
	}
	return decodeJSON(body, out)
}

// decodeJSON unmarshals a response body already in hand, mapping decode
// failures to parse errors the same way GetJSON does.
func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeParse, "malformed JSON response")
	}
	return nil
}

// PostForm posts URL-encoded form data and returns the response body.
func (c *Client) PostForm(ctx context.Context, systemID domain.LibrarySystemId, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	return c.do(ctx, systemID, http.MethodPost, rawURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), headers)
}

func (c *Client) do(ctx context.Context, systemID domain.LibrarySystemId, method, rawURL, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	if err := c.limiter(systemID).Wait(ctx); err != nil {
		return nil, mapTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConnection, "build request")
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, mapTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapStatusError(resp)
	}
	return data, nil
}

// limiter returns the politeness limiter for a system, creating it lazily.
func (c *Client) limiter(systemID domain.LibrarySystemId) *rate.Limiter {
	if lim, ok := c.limiters.Load(systemID); ok {
		return lim
	}
	lim, _ := c.limiters.LoadOrStore(systemID, rate.NewLimiter(rate.Every(c.politeness), c.burst))
	return lim
}

// mapTransportError classifies a transport-level failure. Deadline and
// cancellation both count as timeouts: a cancelled outbound request always
// means a search deadline fired somewhere above us.
func mapTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domainerrors.Wrap(err, domainerrors.CodeTimeout, "request timed out")
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return domainerrors.Wrap(err, domainerrors.CodeTimeout, "request timed out")
		}
		return domainerrors.Wrap(err, domainerrors.CodeConnection, "request failed")
	}
}

// mapStatusError classifies a non-2xx response.
func mapStatusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainerrors.Auth("catalog rejected credentials: status " + strconv.Itoa(resp.StatusCode))
	case http.StatusTooManyRequests:
		retryAfter := 0
		if v := resp.Header.Get("Retry-After"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				retryAfter = n
			}
		}
		return domainerrors.RateLimit("catalog rate limit exceeded", retryAfter)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domainerrors.Timeout("catalog timed out: status " + strconv.Itoa(resp.StatusCode))
	default:
		return domainerrors.Connection("unexpected status " + strconv.Itoa(resp.StatusCode))
	}
}
