package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/report"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Ack confirms a report was accepted by the collector.
type Ack struct {
	StatusCode int
	RequestID  string
}

// Uploader posts reports to the remote collector, one attempt per Send.
type Uploader struct {
	config     Config
	httpClient *http.Client
}

func New(cfg Config) *Uploader {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client) *Uploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Uploader{config: cfg, httpClient: httpClient}
}

// Send performs a single delivery attempt. Transport failures wrap
// model.ErrUnreachable; non-2xx answers return *model.RejectedError.
func (u *Uploader) Send(ctx context.Context, r model.Report) (Ack, error) {
	body, err := report.Encode(r)
	if err != nil {
		return Ack{}, fmt.Errorf("encode report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("build upload request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if u.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.config.Token)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %w", model.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Ack{}, &model.RejectedError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return Ack{StatusCode: resp.StatusCode, RequestID: requestID}, nil
}
