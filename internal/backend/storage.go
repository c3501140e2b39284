package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/goafyi/goafyi/internal/metrics"
)

// Storage wraps the backend's object store: uploads, public-URL retrieval,
// and delete-by-key. Object bytes are never cached; only the resulting URLs
// are, by the media service.
type Storage struct {
	rest    *resty.Client
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewStorage builds the object-store client against the same backend host.
func NewStorage(cfg Config, logger *slog.Logger, rec *metrics.Recorder) (*Storage, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: storage base url required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	rest := resty.New().SetBaseURL(base)
	if cfg.APIKey != "" {
		rest.SetHeader("X-Api-Key", cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}

	return &Storage{
		rest:    rest,
		baseURL: base,
		logger:  logger.With(slog.String("component", "backend_storage")),
		metrics: rec,
	}, nil
}

// Upload stores an object under bucket/key, replacing any previous object.
func (s *Storage) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	start := time.Now()
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Post("/storage/v1/object/" + bucket + "/" + key)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("backend: upload: http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	s.metrics.ObserveBackend("storage_upload", err, time.Since(start))
	if err != nil {
		s.logger.Warn("object upload failed", slog.String("bucket", bucket), slog.String("key", key), slog.Any("error", err))
	}
	return err
}

// PublicURL derives the stable public URL for an object. Pure string
// formatting; the URL is what gets cached, not the bytes behind it.
func (s *Storage) PublicURL(bucket, key string) string {
	return s.baseURL + "/storage/v1/object/public/" + bucket + "/" + key
}

// Remove deletes an object by key. Removing an absent object is a no-op.
func (s *Storage) Remove(ctx context.Context, bucket, key string) error {
	start := time.Now()
	resp, err := s.rest.R().
		SetContext(ctx).
		Delete("/storage/v1/object/" + bucket + "/" + key)
	if err == nil && resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		err = fmt.Errorf("backend: remove: http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	s.metrics.ObserveBackend("storage_remove", err, time.Since(start))
	if err != nil {
		s.logger.Warn("object remove failed", slog.String("bucket", bucket), slog.String("key", key), slog.Any("error", err))
	}
	return err
}
