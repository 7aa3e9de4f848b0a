package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/repository"
)

// TooManyRequestsError represents rate limiting signal from the catalog service.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

func (e TooManyRequestsError) Unwrap() error {
	return domainErrors.ErrRateLimited
}

// HTTPClient reads product stock and prices from a remote catalog.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

var _ repository.Catalog = (*HTTPClient)(nil)

// product mirrors JSON payload from the catalog service.
type product struct {
	ID        int64           `json:"id"`
	Stock     int             `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewHTTPClient creates HTTP catalog client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

// ProductStock returns the remote stock counter of a product.
func (c *HTTPClient) ProductStock(ctx context.Context, productID int64) (int, error) {
	p, err := c.fetch(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// ProductUnitPrice returns the remote unit price of a product.
func (c *HTTPClient) ProductUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	p, err := c.fetch(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.UnitPrice, nil
}

func (c *HTTPClient) fetch(ctx context.Context, productID int64) (*product, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/products/", strconv.FormatInt(productID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrUnknownAvailability, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var data product
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("%w: decode product: %w", domainErrors.ErrUnknownAvailability, err)
		}
		return &data, nil
	case http.StatusNotFound:
		return nil, domainErrors.ErrNotFound
	case http.StatusTooManyRequests:
		return nil, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("catalog request failed",
			slog.Int64("product_id", productID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("%w: catalog error: %s", domainErrors.ErrUnknownAvailability, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
