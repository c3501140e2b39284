package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/goafyi/goafyi/internal/metrics"
)

// ErrNotFound reports an explicit not-found outcome from the backend, as
// opposed to a transport or server failure.
var ErrNotFound = errors.New("backend: not found")

// Config identifies the hosted backend.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the request/response surface of the remote data service. It is
// deliberately thin: every method is one round trip, and all caching decisions
// live above it in the entity services.
type Client struct {
	rest    *resty.Client
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu    sync.RWMutex
	token string
}

// NewClient builds the backend client. The api key authenticates the app
// itself; a session token is attached after sign-in.
func NewClient(cfg Config, logger *slog.Logger, rec *metrics.Recorder) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base url required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rest.SetHeader("X-Api-Key", cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}

	return &Client{
		rest:    rest,
		logger:  logger.With(slog.String("component", "backend_client")),
		metrics: rec,
	}, nil
}

// SetToken attaches (or clears) the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, result any) error {
	start := time.Now()
	req := c.rest.R().SetContext(ctx)
	if token := c.bearer(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err == nil && resp.IsError() {
		if resp.StatusCode() == http.StatusNotFound {
			err = ErrNotFound
		} else {
			err = fmt.Errorf("backend: %s: http %d: %s", operation, resp.StatusCode(), strings.TrimSpace(resp.String()))
		}
	}
	c.metrics.ObserveBackend(operation, err, time.Since(start))
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("backend call failed", slog.String("operation", operation), slog.Any("error", err))
	}
	return err
}

// SignIn authenticates and installs the returned session token on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.do(ctx, "sign_in", resty.MethodPost, "/auth/v1/token", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(session.AccessToken)
	return session, nil
}

// SignOut revokes the current session and clears the installed token. The
// token is cleared even when the revocation call fails; the device-local
// session is over either way.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, "sign_out", resty.MethodPost, "/auth/v1/logout", nil, nil)
	c.SetToken("")
	return err
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	var session Session
	err := c.do(ctx, "refresh_session", resty.MethodPost, "/auth/v1/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(session.AccessToken)
	return session, nil
}

// UserProfile fetches the account record for one user.
func (c *Client) UserProfile(ctx context.Context, userID string) (UserProfile, error) {
	var out UserProfile
	err := c.do(ctx, "user_profile", resty.MethodGet, "/rest/v1/users/"+userID, nil, &out)
	return out, err
}

// UpdateUserProfile replaces the account record.
func (c *Client) UpdateUserProfile(ctx context.Context, p UserProfile) error {
	return c.do(ctx, "update_user_profile", resty.MethodPut, "/rest/v1/users/"+p.ID, p, nil)
}

// VendorProfile fetches one vendor's full record.
func (c *Client) VendorProfile(ctx context.Context, vendorID string) (VendorProfile, error) {
	var out VendorProfile
	err := c.do(ctx, "vendor_profile", resty.MethodGet, "/rest/v1/vendors/"+vendorID, nil, &out)
	return out, err
}

// VendorList fetches the directory listing, optionally filtered by category.
func (c *Client) VendorList(ctx context.Context, category string) ([]VendorSummary, error) {
	path := "/rest/v1/vendors"
	if category != "" {
		path += "?category=" + category
	}
	var out []VendorSummary
	err := c.do(ctx, "vendor_list", resty.MethodGet, path, nil, &out)
	return out, err
}

// ResolveVendorID maps an owner user id to their vendor id.
func (c *Client) ResolveVendorID(ctx context.Context, userID string) (string, error) {
	var out struct {
		VendorID string `json:"vendorId"`
	}
	err := c.do(ctx, "resolve_vendor_id", resty.MethodGet, "/rest/v1/users/"+userID+"/vendor", nil, &out)
	return out.VendorID, err
}

// UpdateVendorProfile replaces a vendor record.
func (c *Client) UpdateVendorProfile(ctx context.Context, v VendorProfile) error {
	return c.do(ctx, "update_vendor_profile", resty.MethodPut, "/rest/v1/vendors/"+v.ID, v, nil)
}

// UpdatePortfolio replaces a vendor's portfolio items.
func (c *Client) UpdatePortfolio(ctx context.Context, vendorID string, items []PortfolioItem) error {
	return c.do(ctx, "update_portfolio", resty.MethodPut, "/rest/v1/vendors/"+vendorID+"/portfolio", items, nil)
}

// RatingStats fetches the server-computed rating aggregate for a vendor.
func (c *Client) RatingStats(ctx context.Context, vendorID string) (RatingStats, error) {
	var out RatingStats
	err := c.do(ctx, "rating_stats", resty.MethodGet, "/rest/v1/vendors/"+vendorID+"/ratings/stats", nil, &out)
	return out, err
}

// UserRating fetches one user's rating of one vendor.
func (c *Client) UserRating(ctx context.Context, userID, vendorID string) (Rating, error) {
	var out Rating
	err := c.do(ctx, "user_rating", resty.MethodGet, "/rest/v1/vendors/"+vendorID+"/ratings/"+userID, nil, &out)
	return out, err
}

// SubmitRating creates or replaces the caller's rating of a vendor.
func (c *Client) SubmitRating(ctx context.Context, r Rating) error {
	return c.do(ctx, "submit_rating", resty.MethodPost, "/rest/v1/vendors/"+r.VendorID+"/ratings", r, nil)
}

// Bookings lists the caller's booking requests.
func (c *Client) Bookings(ctx context.Context, userID string) ([]BookingRequest, error) {
	var out []BookingRequest
	err := c.do(ctx, "bookings", resty.MethodGet, "/rest/v1/users/"+userID+"/bookings", nil, &out)
	return out, err
}

// CreateBooking files a new booking request.
func (c *Client) CreateBooking(ctx context.Context, b BookingRequest) (BookingRequest, error) {
	var out BookingRequest
	err := c.do(ctx, "create_booking", resty.MethodPost, "/rest/v1/bookings", b, &out)
	return out, err
}

// UpdateBookingStatus transitions a booking request.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	return c.do(ctx, "update_booking_status", resty.MethodPatch, "/rest/v1/bookings/"+bookingID, map[string]string{
		"status": status,
	}, nil)
}

// UnreadCount fetches the caller's unread message count.
func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, "unread_count", resty.MethodGet, "/rest/v1/users/"+userID+"/messages/unread", nil, &out)
	return out.Count, err
}

// FeatureSettings fetches the remotely managed feature switches.
func (c *Client) FeatureSettings(ctx context.Context) (FeatureSettings, error) {
	var out FeatureSettings
	err := c.do(ctx, "feature_settings", resty.MethodGet, "/rest/v1/settings", nil, &out)
	return out, err
}
