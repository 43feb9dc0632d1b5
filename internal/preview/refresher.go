package preview

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"vigil/internal/logging"
)

// Run drives the two periodic loops until the context is cancelled: a
// snapshot probe of every known camera on the refresh interval, and a
// full reload of the camera and video lists on the longer data-reload
// interval. The lists are loaded once up front so the panel is not
// empty until the first long tick.
func (m *Manager) Run(ctx context.Context) {
	if err := m.ReloadData(ctx); err != nil {
		m.logger.Warn("initial data load failed", logging.Error(err))
	}
	m.RefreshAll(ctx)

	refresh := time.NewTicker(m.cfg.PreviewRefresh())
	defer refresh.Stop()
	reload := time.NewTicker(m.cfg.DataReload())
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			m.RefreshAll(ctx)
		case <-reload.C:
			if err := m.ReloadData(ctx); err != nil {
				m.logger.Warn("data reload failed", logging.Error(err))
			}
		}
	}
}

// RefreshAll probes every known camera's snapshot endpoint in parallel
// and tags each as online or offline. One camera's failure never
// affects another's tag.
func (m *Manager) RefreshAll(ctx context.Context) {
	cameras := m.Cameras()
	if len(cameras) == 0 {
		return
	}

	results := make([]bool, len(cameras))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, camera := range cameras {
		group.Go(func() error {
			_, err := m.client.Snapshot(groupCtx, camera.ID)
			results[i] = err == nil
			return nil
		})
	}
	_ = group.Wait()

	online := make(map[int64]bool, len(cameras))
	up := 0
	for i, camera := range cameras {
		online[camera.ID] = results[i]
		if results[i] {
			up++
		}
	}

	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
	m.logger.Debug("preview refresh cycle finished",
		logging.Int("cameras", len(cameras)),
		logging.Int("online", up))
}

// ReloadData refreshes the camera and video lists through the retrier.
// Each list is an independent resource key with its own attempt budget.
func (m *Manager) ReloadData(ctx context.Context) error {
	var firstErr error

	if err := m.retrier.Do(ctx, "cameras", func(ctx context.Context) error {
		cameras, err := m.client.ListCameras(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.cameras = cameras
		m.mu.Unlock()
		return nil
	}); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := m.retrier.Do(ctx, "videos", func(ctx context.Context) error {
		videos, err := m.client.ListVideos(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.videos = videos
		m.mu.Unlock()
		return nil
	}); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := m.retrier.Do(ctx, "uploads", func(ctx context.Context) error {
		uploads, err := m.client.ListUploadedVideos(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.uploads = uploads
		m.mu.Unlock()
		return nil
	}); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
