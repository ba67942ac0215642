package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Upload sends a spreadsheet as multipart field "file". A nil r sends a
// form without the file part; the server decides how to answer that.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if r != nil {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to create form file")
		}
		if _, err := io.Copy(part, r); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to read %s", filename)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to finish multipart body")
	}

	var res UploadResult
	if err := c.Send(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &buf, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Process starts ESP identification of emailColumn in an uploaded file.
func (c *Client) Process(ctx context.Context, filePath, emailColumn string) (*ProcessResult, error) {
	var res ProcessResult
	err := c.postJSON(ctx, "/process", processRequest{FilePath: filePath, EmailColumn: emailColumn}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Progress fetches the completion percentage of a task.
func (c *Client) Progress(ctx context.Context, taskID string) (*ProgressResult, error) {
	var res ProgressResult
	if err := c.Send(ctx, http.MethodGet, "/progress/"+url.PathEscape(taskID), "", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Identify looks up the ESP of a single address.
func (c *Client) Identify(ctx context.Context, email string) (*IdentifyResult, error) {
	var res IdentifyResult
	if err := c.postJSON(ctx, "/identify", identifyRequest{Email: email}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Download streams a processed file into w and returns the byte count.
func (c *Client) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	path := "/download/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to create request")
	}

	logrus.WithField("path", path).Debug("downloading")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to download %s", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var eb errorBody
		if jsonErr := json.Unmarshal(b, &eb); jsonErr == nil && eb.Error != "" {
			return 0, &BackendError{StatusCode: resp.StatusCode, Message: eb.Error}
		}
		if resp.StatusCode == http.StatusNotFound {
			return 0, pkgerrors.Wrapf(ErrNotFound, "download %s", name)
		}
		return 0, pkgerrors.Wrapf(ErrUnexpectedResponse, "download %s: got %d", name, resp.StatusCode)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, pkgerrors.Wrapf(err, "failed to save %s", name)
	}
	return n, nil
}
