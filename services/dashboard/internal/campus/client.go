package campus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
)

const defaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read into memory.
const maxBody = 8 << 20

// APIError is a non-2xx response from the campus API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("campus api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("campus api: unexpected status: %d", e.Status)
}

// Client calls the campus delivery API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     aqm.Logger
}

// NewClient reads services.campus.url and services.campus.timeout.
func NewClient(config *aqm.Config, logger aqm.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	baseURL, _ := config.GetString("services.campus.url")
	if baseURL == "" {
		return nil, fmt.Errorf("services.campus.url not configured")
	}

	timeout := defaultTimeout
	if raw, ok := config.GetString("services.campus.timeout"); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid services.campus.timeout %q: %w", raw, err)
		}
		timeout = d
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*Manager, error) {
	return c.authenticate(ctx, "/api/managers/login", creds)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Manager, error) {
	return c.authenticate(ctx, "/api/managers/signup", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Manager, error) {
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := decodeObject(raw, &result); err != nil {
		return nil, err
	}
	if result.Manager == nil || result.Manager.ID == "" {
		return nil, fmt.Errorf("%w: manager id missing", ErrMalformedPayload)
	}
	return result.Manager, nil
}

func (c *Client) GetManager(ctx context.Context, id string) (*Manager, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/managers/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var manager Manager
	if err := decodeObject(raw, &manager); err != nil {
		return nil, err
	}
	return &manager, nil
}

// skipped logs list elements that could not be decoded.
func (c *Client) skipped(key string) func(int, error) {
	return func(index int, err error) {
		c.logger.Error("skipping malformed list element", "list", key, "index", index, "error", err)
	}
}

func (c *Client) ListUniversities(ctx context.Context) ([]University, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/universities", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[University](raw, keyUniversities, c.skipped(keyUniversities))
}

func (c *Client) ListVendors(ctx context.Context) ([]Vendor, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/vendors/all", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Vendor](raw, keyVendors, c.skipped(keyVendors))
}

func (c *Client) ListRiders(ctx context.Context) ([]Rider, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/riders/allRiders", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Rider](raw, keyRiders, c.skipped(keyRiders))
}

func (c *Client) SetVendorApproval(ctx context.Context, id string, valid bool) error {
	path := fmt.Sprintf("/api/vendors/%s/approve", url.PathEscape(id))
	_, err := c.do(ctx, http.MethodPatch, path, map[string]bool{"valid": valid})
	return err
}

func (c *Client) SetRiderApproval(ctx context.Context, id string, valid bool) error {
	path := fmt.Sprintf("/api/riders/%s/approve", url.PathEscape(id))
	_, err := c.do(ctx, http.MethodPatch, path, map[string]bool{"valid": valid})
	return err
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/users/orders", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Order](raw, keyOrders, c.skipped(keyOrders))
}

// DecidePack records a vendor's accept or decline decision for its pack.
func (c *Client) DecidePack(ctx context.Context, orderID, vendorID string, accepted bool) error {
	path := fmt.Sprintf("/api/users/orders/%s/vendor/%s/accept",
		url.PathEscape(orderID), url.PathEscape(vendorID))
	_, err := c.do(ctx, http.MethodPut, path, map[string]bool{"accepted": accepted})
	return err
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/vendors/allProduct", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Product](raw, keyProducts, c.skipped(keyProducts))
}

// CreateProduct returns the stored product, or nil when the server
// acknowledged the write without echoing it back.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/vendors/add", input)
	if err != nil {
		return nil, err
	}

	var result struct {
		NewProduct *Product `json:"newProduct"`
		Product    *Product `json:"product"`
	}
	if err := decodeObject(raw, &result); err != nil {
		return nil, err
	}

	if result.NewProduct != nil {
		return result.NewProduct, nil
	}
	if result.Product == nil {
		c.logger.Info("product created without echo", "title", input.Title)
	}
	return result.Product, nil
}

// UpdateProduct returns the server's updated product, or nil when the
// response carries none.
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (*Product, error) {
	path := "/api/vendors/edit/" + url.PathEscape(id)
	raw, err := c.do(ctx, http.MethodPut, path, input)
	if err != nil {
		return nil, err
	}

	var result struct {
		UpdatedProduct *Product `json:"updatedProduct"`
	}
	if err := decodeObject(raw, &result); err != nil {
		return nil, err
	}
	return result.UpdatedProduct, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: serverMessage(raw)}
		c.logger.Debug("campus api error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, apiErr
	}

	return raw, nil
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
