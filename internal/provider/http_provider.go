package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/pkg/models"
)

// HTTPProvider fetches current metric values from a metrics backend over
// HTTP. The backend is expected to serve one value per metric name at
// GET {endpoint}/targets/{id}/metrics.
type HTTPProvider struct {
	client   *http.Client
	endpoint string
}

type HTTPProviderConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
	}
}

type metricsResponse struct {
	TargetID string             `json:"target_id"`
	Metrics  map[string]float64 `json:"metrics"`
}

func (p *HTTPProvider) Fetch(ctx context.Context, target *models.ScalingTarget) (map[models.ResourceMetric]float64, error) {
	url := fmt.Sprintf("%s/targets/%s/metrics", p.endpoint, target.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	logger.WithTarget(target.ID).Debugf("Fetching metrics from %s", url)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTargetUnknown
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetchFailed, err)
	}

	var mr metricsResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	out := make(map[models.ResourceMetric]float64, len(mr.Metrics))
	for name, value := range mr.Metrics {
		metric := models.ResourceMetric(name)
		if !metric.Valid() {
			continue
		}
		out[metric] = value
	}
	return out, nil
}

func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", p.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
