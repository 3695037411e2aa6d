package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TokenSource provides the bearer token attached to authenticated requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client wraps the marketplace REST API
type Client struct {
	client       *http.Client
	baseURL      string
	imageBaseURL string
	tokens       TokenSource
}

// NewClient initializes a marketplace API client
func NewClient(baseURL, imageBaseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		client:       &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		tokens:       tokens,
	}
}

// do sends a JSON request and decodes the response into out (if non-nil).
// Transport failures come back as *Error with Status 0 so callers can tell
// an unreachable server apart from a business rejection.
func (c *Client) do(method, path string, query url.Values, body interface{}, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.send(req, out)
}

// authorize attaches the bearer token when one is available
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: ExtractMessage(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "failed to decode response from %s", req.URL.Path)
		}
	}
	return nil
}

// PhotoUpload is one file of a batched photo upload
type PhotoUpload struct {
	FileName    string
	ContentType string
	Reader      io.Reader
}

// uploadMultipart sends files in a single multipart request under one field name
func (c *Client) uploadMultipart(path, fieldName string, files []PhotoUpload, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, f.FileName))
		header.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return errors.Wrap(err, "failed to create multipart part")
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return errors.Wrapf(err, "failed to write file %s", f.FileName)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to finalize multipart body")
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	return c.send(req, out)
}

// ResolveImageURL resolves a backend image path against the image base URL.
// Absolute http(s) URLs pass through unchanged.
func (c *Client) ResolveImageURL(image string) string {
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http") {
		return image
	}
	return c.imageBaseURL + "/" + strings.TrimPrefix(image, "/")
}
