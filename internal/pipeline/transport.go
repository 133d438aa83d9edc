package pipeline

import (
	"context"
	"net/http"

	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/utils"
)

// TransportHandler is the terminal handler performing the upstream GET
func TransportHandler(transport interfaces.Transport) Handler {
	return func(ctx context.Context, req *Request) (*models.FetchResult, error) {
		if req.Fetch.IsCacheSentinel() {
			return &models.FetchResult{
				StatusCode: http.StatusNotFound,
				Content:    []byte("No content in cache at key: " + req.Key),
			}, nil
		}

		url := req.Fetch.URL
		resp, err := transport.Perform(ctx, url, req.Fetch.Headers, req.Fetch.Timeout(), req.FollowRedirects)
		if err != nil {
			return nil, fetcherr.Transport(url, err)
		}

		headers := resp.Headers
		if headers == nil {
			headers = http.Header{}
		}
		if req.Key != "" {
			headers = utils.FilterHeaders(headers)
		} else if headers.Get("Cache-Control") == "" {
			headers.Set("Cache-Control", utils.NoCacheHeaderValue)
		}

		result := &models.FetchResult{
			StatusCode: resp.StatusCode,
			Headers:    headers,
			Content:    resp.Body,
			Timing:     resp.Timing,
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return result, nil
		case resp.StatusCode >= 300 && resp.StatusCode < 400 && !req.FollowRedirects:
			return result, fetcherr.Redirect(url, resp.StatusCode, headers)
		default:
			return result, fetcherr.Status(url, resp.StatusCode, headers)
		}
	}
}
