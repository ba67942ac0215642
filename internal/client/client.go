package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client talks to the ESP lookup server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the server at baseURL, e.g. http://localhost:5000.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewClientWithHTTP is like NewClient but uses the given http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	c := NewClient(baseURL)
	c.httpClient = hc
	return c
}

// Send performs the request and decodes a JSON response into out. A
// response carrying an "error" field is returned as a *BackendError.
func (c *Client) Send(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"server": c.baseURL,
	}).Debug("sending request")

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to send request to %s", path)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read response body")
	}

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("received response")

	var eb errorBody
	if jsonErr := json.Unmarshal(b, &eb); jsonErr == nil && eb.Error != "" {
		return &BackendError{StatusCode: resp.StatusCode, Message: eb.Error}
	}

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.Wrapf(ErrNotFound, "%s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.Wrapf(ErrUnexpectedResponse, "got %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return pkgerrors.Wrapf(ErrUnexpectedResponse, "failed to unmarshal response from %s: %v", path, err)
	}
	return nil
}

// postJSON marshals payload and POSTs it to path.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal request")
	}
	return c.Send(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data), out)
}

// DownloadURL returns the absolute URL of a processed file.
func (c *Client) DownloadURL(name string) string {
	return c.baseURL + "/download/" + url.PathEscape(name)
}
