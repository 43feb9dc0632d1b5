// Package backend implements the typed HTTP client for the video-analysis
// backend: video upload, processing submission, artifact probing, record
// listings, and camera stream metadata and snapshots.
package backend
