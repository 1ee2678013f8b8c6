package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"portfolio-tracker/internal/domain"

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

// getJSON performs one rate-limited GET. A 404 maps to ErrAssetNotFound and
// every other failure to an UpstreamError; there is no retry.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, name, url string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{Provider: name, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrAssetNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.UpstreamError{
			Provider:   name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s API error: %s", name, strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: name, Err: err}
	}
	return body, nil
}

func parseError(name string, err error) error {
	return &domain.UpstreamError{Provider: name, Err: fmt.Errorf("parse response: %w", err)}
}
