package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RESTBackend speaks the Upstash Redis REST protocol. It has no FLUSHALL.
type RESTBackend struct {
	client  *http.Client
	baseURL string
	token   string
	log     zerolog.Logger
}

func NewRESTBackend(baseURL, token string, timeout time.Duration, log zerolog.Logger) *RESTBackend {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RESTBackend{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
		log:     log.With().Str("component", "upstash").Logger(),
	}
}

// restResponse is the envelope Upstash wraps every reply in.
type restResponse struct {
	Result *string `json:"result"`
	Error  string  `json:"error"`
}

func (b *RESTBackend) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := b.do(ctx, http.MethodGet, "/get/"+url.PathEscape(key))
	if err != nil {
		return "", false, err
	}
	if resp.Result == nil {
		return "", false, nil
	}
	return *resp.Result, true, nil
}

func (b *RESTBackend) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	secs := int(ttl / time.Second)
	if secs <= 0 {
		secs = 1
	}
	path := fmt.Sprintf("/set/%s/%s/EX/%s", url.PathEscape(key), url.PathEscape(value), strconv.Itoa(secs))
	_, err := b.do(ctx, http.MethodPost, path)
	return err
}

func (b *RESTBackend) Delete(ctx context.Context, key string) error {
	_, err := b.do(ctx, http.MethodPost, "/del/"+url.PathEscape(key))
	return err
}

// FlushAll is a no-op: the REST API does not expose FLUSHALL.
func (b *RESTBackend) FlushAll(ctx context.Context) error {
	b.log.Debug().Msg("FLUSHALL not supported via REST, skipping")
	return nil
}

func (b *RESTBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *RESTBackend) do(ctx context.Context, method, path string) (*restResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out restResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("upstash decode: %w", err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstash API error %d: %s", resp.StatusCode, out.Error)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("upstash: %s", out.Error)
	}
	return &out, nil
}
