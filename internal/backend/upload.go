package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadVideo streams a local video file to the backend as a multipart form
// with field name "video". Validation of the media type happens before the
// call; the backend accepts any size.
func (c *Client) UploadVideo(ctx context.Context, path string) (*UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	// The multipart body is produced on a pipe so large files never buffer
	// fully in memory.
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		part, err := writer.CreateFormFile("video", filepath.Base(path))
		if err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		_ = pipeWriter.CloseWithError(writer.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/api/upload-video"), pipeReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Filename == "" {
		return nil, errors.New("upload response missing stored filename")
	}
	return &result, nil
}
