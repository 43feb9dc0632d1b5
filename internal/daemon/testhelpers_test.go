package daemon_test

import (
	"context"
	"errors"

	"vigil/internal/backend"
)

// stubBackend satisfies both the processing and preview backend
// interfaces with fixed answers.
type stubBackend struct{}

func (stubBackend) UploadVideo(context.Context, string) (*backend.UploadResult, error) {
	return &backend.UploadResult{Filename: "upload_clip.mp4"}, nil
}

func (stubBackend) StartProcessing(_ context.Context, req backend.ProcessRequest) (*backend.ProcessResult, error) {
	return &backend.ProcessResult{ProcessedFilename: "processed_" + req.Filename}, nil
}

func (stubBackend) ProbeProcessed(context.Context, string) (bool, error) {
	return true, nil
}

func (stubBackend) ListCameras(context.Context) ([]backend.Camera, error) {
	return []backend.Camera{{ID: 1, Name: "gate"}}, nil
}

func (stubBackend) ListVideos(context.Context) ([]backend.Video, error) {
	return nil, nil
}

func (stubBackend) ListUploadedVideos(context.Context) ([]backend.UploadedVideo, error) {
	return nil, nil
}

func (stubBackend) StreamInfo(_ context.Context, cameraID int64) (*backend.StreamInfo, error) {
	return &backend.StreamInfo{CameraID: cameraID, CameraName: "gate", RTSPURL: "rtsp://10.0.0.8:554/stream1"}, nil
}

func (stubBackend) Snapshot(context.Context, int64) (*backend.Snapshot, error) {
	return &backend.Snapshot{ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}}, nil
}

type stubTransport struct{}

func (stubTransport) Probe(context.Context, string) error {
	return errors.New("stream transport unavailable")
}
