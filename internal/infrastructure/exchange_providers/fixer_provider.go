// internal/infrastructure/exchange_providers/fixer_provider.go
package infrastructure

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

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/sethvargo/go-retry"
)

// FixerProvider fetches the whole universe from a fixer.io compatible
// "latest" endpoint in one request.
type FixerProvider struct {
	client     *http.Client
	baseURL    string
	accessKey  string
	maxRetries uint64
	retryDelay time.Duration
	logger     *slog.Logger
}

type fixerResponse struct {
	Success bool                       `json:"success"`
	Base    string                     `json:"base"`
	Date    string                     `json:"date"`
	Rates   map[string]json.RawMessage `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func NewFixerProvider(cfg config.Fixer, logger *slog.Logger) *FixerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FixerProvider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:  cfg.AccessKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

func (f *FixerProvider) GetName() string {
	return "fixer"
}

func (f *FixerProvider) FetchAll(ctx context.Context, codes []string) (domain.RateQuotes, error) {
	reqURL := f.latestURL(codes)

	delay := f.retryDelay
	if delay <= 0 {
		delay = time.Second
	}
	backoff := retry.WithMaxRetries(f.maxRetries, retry.NewExponential(delay))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := f.do(ctx, reqURL)
		if err != nil {
			var statusErr *statusError
			if errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError {
				return err
			}
			f.logger.Warn("fixer request failed", "error", err, "max_retries", f.maxRetries)
			return retry.RetryableError(err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	var resp fixerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse fixer response: %w", domain.ErrFetch, err)
	}
	if !resp.Success {
		if resp.Error != nil {
			return nil, fmt.Errorf("%w: fixer error %d (%s): %s", domain.ErrFetch,
				resp.Error.Code, resp.Error.Type, resp.Error.Info)
		}
		return nil, fmt.Errorf("%w: fixer reported failure", domain.ErrFetch)
	}

	return f.parseRates(codes, resp.Rates), nil
}

func (f *FixerProvider) latestURL(codes []string) string {
	q := url.Values{}
	q.Set("access_key", f.accessKey)
	if len(codes) > 0 {
		q.Set("symbols", strings.Join(codes, ","))
	}
	return f.baseURL + "/latest?" + q.Encode()
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fixer API returned status: %d, body: %s", e.code, e.body)
}

func (f *FixerProvider) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get rates from fixer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: truncate(body, 256)}
	}
	return body, nil
}

// parseRates keeps only requested codes that carry a JSON number.
func (f *FixerProvider) parseRates(codes []string, raw map[string]json.RawMessage) domain.RateQuotes {
	quotes := make(domain.RateQuotes, len(codes))
	for _, code := range codes {
		value, ok := raw[code]
		if !ok {
			f.logger.Debug("rate absent from fixer response", "code", code)
			continue
		}
		rate, err := parseRate(value)
		if err != nil {
			f.logger.Warn("skipping rate entry", "code", code, "error", err)
			continue
		}
		quotes[code] = rate
	}
	return quotes
}

func parseRate(value json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, fmt.Errorf("%w: empty value", domain.ErrMalformedRate)
	}
	var rate float64
	if err := json.Unmarshal(trimmed, &rate); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrMalformedRate, truncate(trimmed, 32))
	}
	return rate, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
