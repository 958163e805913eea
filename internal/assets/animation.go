package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Fetcher downloads the decorative page assets. Every failure is logged
// and reported as a missing asset; the page renders without it.
type Fetcher struct {
	client *resty.Client
	logger *zap.Logger
}

func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: resty.New().SetTimeout(timeout),
		logger: logger,
	}
}

// Animation returns the Lottie JSON document at url, or nil if url is empty,
// unreachable, answers with anything but 200, or is not valid JSON.
func (f *Fetcher) Animation(ctx context.Context, url string) json.RawMessage {
	if url == "" {
		return nil
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.logger.Warn("Failed to fetch animation", zap.String("url", url), zap.Error(err))
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		f.logger.Warn("Animation not available", zap.String("url", url), zap.Int("status", resp.StatusCode()))
		return nil
	}

	body := resp.Body()
	if !json.Valid(body) {
		f.logger.Warn("Animation is not valid JSON", zap.String("url", url))
		return nil
	}

	return json.RawMessage(body)
}
