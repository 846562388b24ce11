package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"butterfly/internal/models"

	"github.com/redis/go-redis/v9"
)

const menuCacheKey = "butterfly:menu"

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the Butterfly HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	apiExtra   string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client with baseURL and the optional admin key pair.
func New(baseURL, apiKey, apiExtra string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiExtra:   apiExtra,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache enables caching of the public menu listing.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) CreateBooking(ctx context.Context, input models.BookingInput) (*models.BookingResponse, error) {
	var resp models.BookingResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/bookings", input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var resp models.BookingListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/bookings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bookings, nil
}

func (c *Client) UpdateStatus(ctx context.Context, update models.StatusUpdate) (*models.Booking, error) {
	var resp models.BookingResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/bookings/status", update, &resp); err != nil {
		return nil, err
	}
	return resp.Booking, nil
}

func (c *Client) FindBooking(ctx context.Context, reference string) (*models.Booking, error) {
	var resp models.BookingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(reference), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Booking, nil
}

// ExportBookings streams the XLSX export into w.
func (c *Client) ExportBookings(ctx context.Context, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/bookings/export", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	var resp models.MenuListResponse
	if c.readCache(ctx, menuCacheKey, &resp) {
		return resp.Items, nil
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/menu", nil, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, menuCacheKey, resp)
	return resp.Items, nil
}

func (c *Client) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var resp models.MenuResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/menu/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, input models.MenuItemInput) (*models.MenuItem, error) {
	return c.menuMutation(ctx, http.MethodPost, "/api/menu", input)
}

func (c *Client) UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	return c.menuMutation(ctx, http.MethodPut, "/api/menu/"+url.PathEscape(id), patch)
}

func (c *Client) DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return c.menuMutation(ctx, http.MethodDelete, "/api/menu/"+url.PathEscape(id), nil)
}

func (c *Client) ToggleMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return c.menuMutation(ctx, http.MethodPut, "/api/menu/"+url.PathEscape(id)+"/toggle", nil)
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/ping", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) menuMutation(ctx context.Context, method, path string, body any) (*models.MenuItem, error) {
	var resp models.MenuResponse
	if err := c.doJSON(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	c.dropCache(ctx, menuCacheKey)
	return resp.Item, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
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

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var body models.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
}
