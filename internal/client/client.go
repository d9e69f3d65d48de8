package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// Client talks to a backoffice backend. All methods return *APIError for
// backend-reported failures and plain errors for transport problems; the
// store treats both the same way.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List issues one list request for the serialized table state. A 2xx
// response without an items array is malformed and reported as an error,
// exactly like a transport failure.
func (c *Client) List(ctx context.Context, endpoint string, q Query) (ListResult, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("perPage", strconv.Itoa(q.PerPage))
	if q.SortField != "" {
		params.Set("sortField", q.SortField)
		params.Set("sortOrder", q.SortOrder)
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	if q.ShowDeleted {
		params.Set("showDeleted", "true")
	}

	var raw struct {
		Items      *[]schema.Row `json:"items"`
		Pagination Pagination    `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil, &raw); err != nil {
		return ListResult{}, err
	}
	if raw.Items == nil {
		return ListResult{}, fmt.Errorf("malformed list response: missing items")
	}
	return ListResult{Items: *raw.Items, Pagination: raw.Pagination}, nil
}

// Create posts a wire-transformed field map to the resource endpoint.
func (c *Client) Create(ctx context.Context, endpoint string, payload map[string]any) (schema.Row, error) {
	var row schema.Row
	if err := c.do(ctx, http.MethodPost, endpoint, payload, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Update puts a wire-transformed field map to the row's endpoint.
func (c *Client) Update(ctx context.Context, endpoint, id string, payload map[string]any) (schema.Row, error) {
	var row schema.Row
	if err := c.do(ctx, http.MethodPut, endpoint+"/"+url.PathEscape(id), payload, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes (or restores, or permanently removes) one row.
func (c *Client) Delete(ctx context.Context, endpoint, id string, opts DeleteOptions) error {
	return c.do(ctx, http.MethodDelete, endpoint+"/"+url.PathEscape(id)+deleteFlags(opts), nil, nil)
}

// BulkDelete removes a batch of rows in one request, ids in the body. The
// contract has no per-item partial success: the whole batch succeeds or
// fails together.
func (c *Client) BulkDelete(ctx context.Context, endpoint string, ids []string, opts DeleteOptions) error {
	return c.do(ctx, http.MethodDelete, endpoint+deleteFlags(opts), map[string]any{"ids": ids}, nil)
}

func deleteFlags(opts DeleteOptions) string {
	switch {
	case opts.Restore:
		return "?restore=true"
	case opts.Force:
		return "?force=true"
	}
	return ""
}

// FetchOptions resolves a dynamic option source endpoint.
func (c *Client) FetchOptions(ctx context.Context, ep *schema.FieldEndpoint) ([]schema.Option, error) {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	path := ep.URL
	if len(ep.QueryParams) > 0 {
		params := url.Values{}
		for k, v := range ep.QueryParams {
			params.Set(k, v)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + params.Encode()
	}
	var body any
	if len(ep.Body) > 0 {
		body = ep.Body
	}
	var result OptionsResult
	if err := c.do(ctx, method, path, body, &result); err != nil {
		return nil, err
	}
	return result.Options, nil
}

// UploadImage pushes one binary file through the upload collaborator. Unlike
// the other methods it is expected to be caught by the submit path and
// converted into a general form error.
func (c *Client) UploadImage(ctx context.Context, path string, req UploadRequest) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", req.File.Name)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := part.Write(req.File.Content); err != nil {
		return UploadResult{}, err
	}
	w.WriteField("dir", req.Dir)
	w.WriteField("maxWidth", strconv.Itoa(req.MaxWidth))
	w.WriteField("maxHeight", strconv.Itoa(req.MaxHeight))
	if req.OldPath != "" {
		w.WriteField("oldPath", req.OldPath)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("X-Correlation-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return UploadResult{}, decodeAPIError(resp)
	}
	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, err
	}
	if !result.Success {
		return UploadResult{}, fmt.Errorf("image upload failed")
	}
	return result, nil
}

// do issues one JSON request and decodes the response into out (when out is
// non-nil). Backend errors decode into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Correlation-ID", uuid.NewString())

	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeAPIError reads a backend error envelope. Field-level validation
// errors arrive either as plain strings or as {message} objects; both decode
// into the flat ValidationErrors map.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error            string                     `json:"error"`
		Message          string                     `json:"message"`
		ValidationErrors map[string]json.RawMessage `json:"validationErrors"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Message = envelope.Error
	if apiErr.Message == "" {
		apiErr.Message = envelope.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}

	if len(envelope.ValidationErrors) > 0 {
		apiErr.ValidationErrors = make(map[string]string, len(envelope.ValidationErrors))
		for field, raw := range envelope.ValidationErrors {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				apiErr.ValidationErrors[field] = s
				continue
			}
			var obj struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
				apiErr.ValidationErrors[field] = obj.Message
			}
		}
	}
	return apiErr
}
