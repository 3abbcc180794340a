package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultRetryTimes    = 5
	DefaultRetryInterval = 100 * time.Millisecond
	DefaultTimeout       = 5 * time.Second
)

func GetUrlResponse(rawUrl string, params map[string]string, result any, logger *slog.Logger) error {
	return GetUrlResponseWithRetry(rawUrl, params, result, 1, logger)
}

func GetUrlResponseWithRetry(rawUrl string, params map[string]string, result any, retry int, logger *slog.Logger) error {
	reqUrl := rawUrl
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		reqUrl += "?" + q.Encode()
	}

	var lastErr error
	for i := 0; i < retry; i++ {
		lastErr = doGet(reqUrl, result)
		if lastErr == nil {
			return nil
		}
		logger.Warn("GET request failed, retrying...", "url", reqUrl, "attempt", i+1, "err", lastErr)
		time.Sleep(DefaultRetryInterval)
	}
	return fmt.Errorf("GET request failed after %d attempts: %w", retry, lastErr)
}

func PostUrlResponse(url string, body any, result any, logger *slog.Logger) error {
	return PostUrlResponseWithRetry(url, body, result, 1, logger)
}

func PostUrlResponseWithRetry(url string, body any, result any, retry int, logger *slog.Logger) error {
	var lastErr error
	for i := 0; i < retry; i++ {
		lastErr = doPost(url, body, result)
		if lastErr == nil {
			return nil
		}
		logger.Warn("POST request failed, retrying...", "url", url, "attempt", i+1, "err", lastErr)
		time.Sleep(DefaultRetryInterval)
	}
	return fmt.Errorf("POST request failed after %d attempts: %w", retry, lastErr)
}

func doGet(url string, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create GET request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET request returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("failed to stream and unmarshal GET response: %w", err)
	}

	return nil
}

func doPost(url string, body any, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal POST body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyResp, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST request returned status %d: %s", resp.StatusCode, string(bodyResp))
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("failed to stream and unmarshal POST response: %w", err)
	}

	return nil
}
