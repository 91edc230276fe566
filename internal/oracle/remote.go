package oracle

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

	"go.uber.org/zap"

	"SmartRental/internal/model"
)

// RemoteOracle asks a model-serving endpoint for a price prediction.
type RemoteOracle struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
	Client     *http.Client
}

// NewRemoteOracle creates a remote oracle with optional proxy support.
func NewRemoteOracle(baseURL, apiKey, proxyURL string, timeout time.Duration, maxRetries int) *RemoteOracle {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RemoteOracle{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		MaxRetries: maxRetries,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (o *RemoteOracle) Name() string { return KindRemote }

type predictRequest struct {
	Features model.PropertyFeatures `json:"features"`
}

type predictResponse struct {
	Price *float64 `json:"price"`
	Error string   `json:"error,omitempty"`
}

// Predict posts the features to {BaseURL}/predict, retrying with exponential
// backoff while the model is unavailable.
func (o *RemoteOracle) Predict(ctx context.Context, features model.PropertyFeatures) (float64, error) {
	var lastErr error
	for i := 0; i <= o.MaxRetries; i++ {
		price, err := o.predictOnce(ctx, features)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, ErrModelUnavailable) || i == o.MaxRetries {
			return 0, err
		}
		lastErr = err
		backoff := time.Duration(1<<uint(i)) * 250 * time.Millisecond
		zap.L().Warn("price model request failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", o.MaxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return 0, unavailable("oracle: remote predict", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return 0, lastErr
}

func (o *RemoteOracle) predictOnce(ctx context.Context, features model.PropertyFeatures) (float64, error) {
	const op = "oracle: remote predict"

	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return 0, failed(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, unavailable(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, unavailable(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, unavailable(op, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody)))
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, failed(op, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, failed(op, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return 0, failed(op, errors.New(out.Error))
	}
	if out.Price == nil {
		return 0, failed(op, errors.New("response has no price"))
	}
	return *out.Price, nil
}
