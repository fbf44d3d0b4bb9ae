package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/outline"
	"github.com/aouyang1/pptmaker/store"
	"github.com/google/uuid"
)

const (
	outlinePath      = "/generate-outline"
	presentationPath = "/generate-presentation"
	settingsPath     = "/settings"
)

// BackendClient talks to the outline/render service. Failed calls are never
// retried here.
type BackendClient struct {
	baseURL     string
	settingsURL string
	client      *http.Client
}

// NewBackendClient builds a client for baseURL. An empty settingsURL means
// baseURL + "/settings". A zero timeout keeps the transport default.
func NewBackendClient(baseURL, settingsURL string, timeout time.Duration) *BackendClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if settingsURL == "" {
		settingsURL = baseURL + settingsPath
	}
	return &BackendClient{
		baseURL:     baseURL,
		settingsURL: settingsURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// RequestOutline asks the backend for a slide outline.
func (bc *BackendClient) RequestOutline(ctx context.Context, req models.OutlineRequest) (*outline.Outline, error) {
	status, body, err := bc.postJSON(ctx, outlinePath, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body)
	}

	var outlineResp models.OutlineResponse
	if err := json.Unmarshal(body, &outlineResp); err != nil {
		return nil, &Error{Kind: KindDecode, StatusCode: status, Err: err}
	}

	if md := outlineResp.Metadata; md != nil {
		slog.Debug("outline generated",
			"topic", md.Topic,
			"requested_slides", md.RequestedSlides,
			"generated_slides", md.GeneratedSlides,
		)
	}
	return &outlineResp.Outline, nil
}

// RequestPresentationFile asks the backend to render slides with the given
// template and returns the file bytes.
func (bc *BackendClient) RequestPresentationFile(ctx context.Context, title string, slides outline.Slides, templateID string) ([]byte, error) {
	reqBody := models.PresentationRequest{
		PresentationTitle: title,
		Slides:            slides,
		Template:          templateID,
	}
	status, body, err := bc.postJSON(ctx, presentationPath, reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body)
	}
	return body, nil
}

// FetchSettings reads the paywall settings record.
func (bc *BackendClient) FetchSettings(ctx context.Context) (*store.PaywallSettings, error) {
	endpoint, err := parseEndpoint(bc.settingsURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidEndpoint, Err: err}
	}

	status, body, err := bc.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body)
	}

	var settingsResp models.SettingsResponse
	if err := json.Unmarshal(body, &settingsResp); err != nil {
		return nil, &Error{Kind: KindDecode, StatusCode: status, Err: err}
	}
	return &settingsResp.Settings, nil
}

func (bc *BackendClient) postJSON(ctx context.Context, path string, reqBody any) (int, []byte, error) {
	endpoint, err := parseEndpoint(bc.baseURL + path)
	if err != nil {
		return 0, nil, err
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, nil, &Error{Kind: KindInvalidEndpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return bc.do(req)
}

func (bc *BackendClient) do(req *http.Request) (int, []byte, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := bc.client.Do(req)
	if err != nil {
		slog.Warn("backend request failed", "url", req.URL.String(), "request_id", requestID, "error", err)
		return 0, nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &Error{Kind: KindTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	slog.Debug("backend request",
		"method", req.Method,
		"url", req.URL.String(),
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)
	return resp.StatusCode, body, nil
}

func statusError(status int, body []byte) error {
	var errResp models.BackendErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return &Error{Kind: KindServer, StatusCode: status, Message: errResp.Detail}
	}
	return &Error{Kind: KindStatus, StatusCode: status}
}

func parseEndpoint(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &Error{Kind: KindInvalidEndpoint, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &Error{Kind: KindInvalidEndpoint, Err: fmt.Errorf("unsupported url %q", raw)}
	}
	return u.String(), nil
}
