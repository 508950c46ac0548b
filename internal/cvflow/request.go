package cvflow

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
)

// APIError carries the HTTP status and the backend's detail message so
// callers can distinguish a missing document from a transport failure.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// NotFound reports whether the error is a 404 from the backend.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

type errorResponse struct {
	Detail string `json:"detail,omitempty"`
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, target)
}

func (c *Client) postJSON(ctx context.Context, url string, payload, target any) error {
	return c.doJSON(ctx, http.MethodPost, url, payload, target)
}

func (c *Client) putJSON(ctx context.Context, url string, payload, target any) error {
	return c.doJSON(ctx, http.MethodPut, url, payload, target)
}

func (c *Client) deleteJSON(ctx context.Context, url string) error {
	return c.doJSON(ctx, http.MethodDelete, url, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	req, err = c.setHeaders(ctx, req)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var parsed errorResponse
		// Body may be empty or non-JSON on proxy errors.
		_ = json.Unmarshal(data, &parsed)
		return &APIError{Status: resp.StatusCode, Detail: parsed.Detail}
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

// download fetches a binary artifact (PDF preview and such).
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req, err = c.setHeaders(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var parsed errorResponse
		_ = json.Unmarshal(data, &parsed)
		return nil, &APIError{Status: resp.StatusCode, Detail: parsed.Detail}
	}

	return data, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving api token: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req, nil
}
