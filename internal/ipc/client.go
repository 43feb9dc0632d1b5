package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start its background loops.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Vigil.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Vigil.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Vigil.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload streams a local file to the backend.
func (c *Client) Upload(path string) (*UploadResponse, error) {
	var resp UploadResponse
	if err := c.client.Call("Vigil.Upload", UploadRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Process submits an uploaded job for analysis.
func (c *Client) Process(jobID int64, depersonalize bool) (*ProcessResponse, error) {
	var resp ProcessResponse
	req := ProcessRequest{JobID: jobID, Depersonalize: depersonalize}
	if err := c.client.Call("Vigil.Process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobStatus returns the active or most recent job.
func (c *Client) JobStatus() (*JobStatusResponse, error) {
	var resp JobStatusResponse
	if err := c.client.Call("Vigil.JobStatus", JobStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns session jobs optionally filtered by statuses.
func (c *Client) JobList(statuses []string) (*JobListResponse, error) {
	var resp JobListResponse
	req := JobListRequest{Statuses: statuses}
	if err := c.client.Call("Vigil.JobList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobClear removes all session job records.
func (c *Client) JobClear() (*JobClearResponse, error) {
	var resp JobClearResponse
	if err := c.client.Call("Vigil.JobClear", JobClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cameras returns the camera list with online tags.
func (c *Client) Cameras() (*CamerasResponse, error) {
	var resp CamerasResponse
	if err := c.client.Call("Vigil.Cameras", CamerasRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Videos returns the recorded-video list.
func (c *Client) Videos() (*VideosResponse, error) {
	var resp VideosResponse
	if err := c.client.Call("Vigil.Videos", VideosRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadedVideos returns the upload list.
func (c *Client) UploadedVideos() (*UploadedVideosResponse, error) {
	var resp UploadedVideosResponse
	if err := c.client.Call("Vigil.UploadedVideos", UploadedVideosRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewOpen starts a preview session for a camera.
func (c *Client) PreviewOpen(cameraID int64) (*PreviewOpenResponse, error) {
	var resp PreviewOpenResponse
	if err := c.client.Call("Vigil.PreviewOpen", PreviewOpenRequest{CameraID: cameraID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewClose dismisses a camera's preview session.
func (c *Client) PreviewClose(cameraID int64) error {
	var resp PreviewCloseResponse
	return c.client.Call("Vigil.PreviewClose", PreviewCloseRequest{CameraID: cameraID}, &resp)
}

// PreviewRefresh re-runs the transport ladder for an open session.
func (c *Client) PreviewRefresh(cameraID int64) (*PreviewRefreshResponse, error) {
	var resp PreviewRefreshResponse
	if err := c.client.Call("Vigil.PreviewRefresh", PreviewRefreshRequest{CameraID: cameraID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot captures a still for an open preview session.
func (c *Client) Snapshot(cameraID int64) (*SnapshotResponse, error) {
	var resp SnapshotResponse
	if err := c.client.Call("Vigil.Snapshot", SnapshotRequest{CameraID: cameraID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewStatus returns the aggregate camera panel and live sessions.
func (c *Client) PreviewStatus() (*PreviewStatusResponse, error) {
	var resp PreviewStatusResponse
	if err := c.client.Call("Vigil.PreviewStatus", PreviewStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Vigil.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Vigil.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
