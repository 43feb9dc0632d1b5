package backend

import "fmt"

// UploadResult is the backend's descriptor for a stored upload.
type UploadResult struct {
	Success    bool    `json:"success"`
	Filename   string  `json:"filename"`
	Duration   float64 `json:"duration"`
	FPS        float64 `json:"fps"`
	FrameCount int64   `json:"frame_count"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FileSize   int64   `json:"file_size"`
}

// ProcessRequest asks the backend to analyze a stored upload.
type ProcessRequest struct {
	Filename      string `json:"filename"`
	Depersonalize bool   `json:"depersonalize"`
}

// ProcessResult acknowledges an accepted processing submission.
type ProcessResult struct {
	Success           bool   `json:"success"`
	ProcessedFilename string `json:"processed_filename"`
	FrameCount        int64  `json:"frame_count"`
	Depersonalized    bool   `json:"depersonalized"`
}

// Camera is one configured camera record.
type Camera struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	RTSPPath  string `json:"rtsp_path"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
}

// Video is one recorded video record with its detection counters.
type Video struct {
	ID             int64   `json:"id"`
	Filename       string  `json:"filename"`
	CameraID       int64   `json:"camera_id"`
	CameraName     string  `json:"camera_name"`
	Duration       float64 `json:"duration"`
	FacesDetected  int     `json:"faces_detected"`
	PlatesDetected int     `json:"plates_detected"`
	Depersonalized bool    `json:"depersonalized"`
	CreatedAt      string  `json:"created_at"`
}

// UploadedVideo is one stored upload record.
type UploadedVideo struct {
	Filename   string `json:"filename"`
	FileSize   int64  `json:"file_size"`
	UploadedAt string `json:"uploaded_at"`
}

// StreamInfo carries a camera's stream endpoint reference.
type StreamInfo struct {
	CameraID   int64  `json:"camera_id"`
	CameraName string `json:"camera_name"`
	RTSPURL    string `json:"rtsp_url"`
}

// Snapshot holds one still image captured from a camera.
type Snapshot struct {
	ContentType string
	Data        []byte
}

// APIError is a non-success backend response, carrying the backend-provided
// message when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

type errorBody struct {
	Error string `json:"error"`
}
