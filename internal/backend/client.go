package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vigil/internal/services"
)

const userAgent = "Vigil/0.1.0"

// Client provides access to the video-analysis backend HTTP API.
type Client struct {
	base       *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("backend base url required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("backend base url %q must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// StartProcessing submits a stored upload for analysis. The backend's error
// message, when present, is surfaced through APIError.
func (c *Client) StartProcessing(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	var result ProcessResult
	if err := c.postJSON(ctx, "/api/process-video", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProbeProcessed checks whether a processing artifact exists yet. A 200 is the
// sole authoritative ready signal; any other status means "not ready" and is
// reported as ready=false with a nil error.
func (c *Client) ProbeProcessed(ctx context.Context, filename string) (bool, error) {
	endpoint := c.endpoint("/api/processed-video/" + url.PathEscape(filename))
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	// The artifact endpoint serves the whole file on success; the status code
	// alone answers the probe, so the body is discarded unread.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1))

	return resp.StatusCode == http.StatusOK, nil
}

// ListCameras fetches all configured cameras.
func (c *Client) ListCameras(ctx context.Context) ([]Camera, error) {
	var cameras []Camera
	if err := c.getJSON(ctx, "/api/cameras", &cameras); err != nil {
		return nil, err
	}
	return cameras, nil
}

// ListVideos fetches all recorded videos.
func (c *Client) ListVideos(ctx context.Context) ([]Video, error) {
	var videos []Video
	if err := c.getJSON(ctx, "/api/videos", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// ListUploadedVideos fetches all stored uploads.
func (c *Client) ListUploadedVideos(ctx context.Context) ([]UploadedVideo, error) {
	var uploads []UploadedVideo
	if err := c.getJSON(ctx, "/api/uploaded-videos", &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

// StreamInfo fetches a camera's stream endpoint reference.
func (c *Client) StreamInfo(ctx context.Context, cameraID int64) (*StreamInfo, error) {
	var info StreamInfo
	path := "/api/stream/" + strconv.FormatInt(cameraID, 10)
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Snapshot captures a single still image from a camera. Any non-200 response
// is an error; preview sessions treat it as offline-for-cycle.
func (c *Client) Snapshot(ctx context.Context, cameraID int64) (*Snapshot, error) {
	endpoint := c.endpoint("/api/stream/" + strconv.FormatInt(cameraID, 10) + "/snapshot")
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	return &Snapshot{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", services.ErrTimeout, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	return req, nil
}

func (c *Client) endpoint(path string) string {
	ref := *c.base
	ref.Path = strings.TrimRight(ref.Path, "/") + path
	return ref.String()
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil {
			apiErr.Message = strings.TrimSpace(parsed.Error)
		}
	}
	return apiErr
}
