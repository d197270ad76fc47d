// Package fetch retrieves reservation snapshots from the backend API
// and keeps the most recent one available to the calendar core.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"reserva/internal/models"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the reservation backend. Authentication
// uses the bearer token from the session store via oauth2.Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client. tokenSource supplies the bearer token
// for every request; a nil tokenSource sends unauthenticated requests.
func NewClient(baseURL string, tokenSource oauth2.TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if tokenSource != nil {
		hc.Transport = &oauth2.Transport{Source: tokenSource}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetRateLimit overrides the per-second request budget toward upstream.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// reservationsResponse wraps the list payload from the backend.
type reservationsResponse struct {
	Reservations []models.Reservation `json:"reservations"`
}

// GetConfirmedReservations fetches the confirmed reservations the
// calendar displays. Status filtering happens upstream; the snapshot is
// used as received.
func (c *Client) GetConfirmedReservations(ctx context.Context) ([]models.Reservation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/reservations?status=confirmed", c.baseURL)
	cacheKey := "reservations:confirmed"

	var resp reservationsResponse
	if c.readCache(ctx, cacheKey, &resp) {
		return resp.Reservations, nil
	}

	if err := c.doGet(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return resp.Reservations, nil
}

// GetReservation fetches a single reservation for the detail view.
func (c *Client) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/reservations/%s", c.baseURL, id)
	var r models.Reservation
	if err := c.doGet(ctx, endpoint, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// HealthCheck checks if the backend API is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/healthz", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
