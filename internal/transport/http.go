package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// Ensure HTTPTransport implements interfaces.Transport
var _ interfaces.Transport = (*HTTPTransport)(nil)

// HTTPTransport performs GETs over net/http. Both clients share one
// connection pool and differ only in redirect policy.
type HTTPTransport struct {
	following *http.Client
	direct    *http.Client
	logger    *zap.Logger
}

// NewHTTPTransport creates a transport on top of rt, or the default transport when nil
func NewHTTPTransport(rt http.RoundTripper, logger *zap.Logger) *HTTPTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &HTTPTransport{
		following: &http.Client{Transport: rt},
		direct: &http.Client{
			Transport: rt,
			// do not follow redirects
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Perform issues a single GET. Any status is a response; only connection
// level failures and timeouts are errors.
func (t *HTTPTransport) Perform(ctx context.Context, url string, headers http.Header, timeout time.Duration, followRedirects bool) (*models.TransportResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	client := t.direct
	if followRedirects {
		client = t.following
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	elapsed := time.Since(start)
	t.logger.Debug("Upstream responded",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return &models.TransportResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Timing:     elapsed,
	}, nil
}
