package kismet

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

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
)

const (
	defaultBaseURL = "http://localhost:2501"
	defaultTimeout = 5 * time.Second

	devicesPath = "/devices/last-time/0/devices.ekjson"
	statusPath  = "/system/status.json"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	// APIKey is sent as the KISMET session cookie and takes precedence over basic auth.
	APIKey  string
	Timeout time.Duration
}

// Client queries the Kismet REST API for the current device list.
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return NewClientWithHTTPClient(cfg, nil)
}

func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, baseURL: base, httpClient: httpClient}
}

// Fetch returns every device Kismet currently tracks. Any failure, including
// a timeout or an undecodable stream, is reported as ErrBackendUnavailable
// and no partial list is returned.
func (c *Client) Fetch(ctx context.Context) ([]model.SightedDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	rows, err := c.postRows(ctx, devicesPath, map[string]any{"fields": deviceFields})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	devices := make([]model.SightedDevice, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, DecodeDevice(row))
	}
	return devices, nil
}

// Ping reports whether Kismet answers its status endpoint with a device count.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	if _, ok := status["kismet.system.devices.count"]; !ok {
		return fmt.Errorf("%w: status missing device count", model.ErrBackendUnavailable)
	}
	return nil
}

func (c *Client) postRows(ctx context.Context, path string, command map[string]any) ([]map[string]any, error) {
	payload, err := json.Marshal(command)
	if err != nil {
		return nil, err
	}
	form := url.Values{"json": {string(payload)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

func (c *Client) authorize(req *http.Request) {
	if c.config.APIKey != "" {
		req.AddCookie(&http.Cookie{Name: "KISMET", Value: c.config.APIKey})
		return
	}
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return errors.New("kismet login required")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// decodeRows accepts either ekjson (one object per line) or a JSON array.
func decodeRows(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]any
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	rows := make([]map[string]any, 0)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode ekjson: %w", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
