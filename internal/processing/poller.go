package processing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"vigil/internal/config"
	"vigil/internal/logging"
)

// startPoller launches the completion poller for a job that just entered
// polling. The poller goroutine owns the processing guard and releases
// it exactly once, on the terminal transition or shutdown.
func (c *Controller) startPoller(jobID int64, outputFilename string, started time.Time) {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.processGuard.Release()
		c.runPoller(ctx, jobID, outputFilename, started)
	}()
}

func (c *Controller) runPoller(ctx context.Context, jobID int64, outputFilename string, started time.Time) {
	logger := c.logger.With(logging.Int64(logging.FieldJobID, jobID))
	deadline := started.Add(c.cfg.PollTimeout())

	ticker := time.NewTicker(c.cfg.PollTick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("completion poller stopped before result")
			return
		case <-ticker.C:
		}

		job, err := c.store.GetByID(ctx, jobID)
		if err != nil {
			logger.Error("completion poller lost its job record", logging.Error(err))
			return
		}
		if job.Status.IsTerminal() {
			return
		}

		ready, err := c.client.ProbeProcessed(ctx, outputFilename)
		if err != nil {
			// Transport errors are indistinguishable from "not ready
			// yet"; keep polling until the deadline decides.
			logger.Warn("artifact probe failed", logging.Error(err))
		}
		if ready {
			job.SetComplete(outputFilename)
			if err := c.store.Update(ctx, job); err != nil {
				logger.Error("record completion", logging.Error(err))
				return
			}
			c.publish(*job)
			elapsed := c.now().Sub(started)
			logger.Info("analysis complete",
				logging.String("output", outputFilename),
				logging.Duration("elapsed", elapsed))
			if err := c.notifier.NotifyProcessingCompleted(ctx, outputFilename, elapsed); err != nil {
				logger.Warn("completion notification failed", logging.Error(err))
			}
			return
		}

		if c.now().After(deadline) {
			waited := c.cfg.PollTimeout()
			job.SetTimedOut(fmt.Sprintf("no result after %s", waited))
			if err := c.store.Update(ctx, job); err != nil {
				logger.Error("record timeout", logging.Error(err))
				return
			}
			c.publish(*job)
			logger.Warn("analysis timed out",
				logging.String("output", outputFilename),
				logging.Duration("waited", waited))
			if err := c.notifier.NotifyProcessingTimeout(ctx, job.SourceFilename, waited); err != nil {
				logger.Warn("timeout notification failed", logging.Error(err))
			}
			return
		}

		job.AdvanceProgress(c.step(), c.cfg.Processing.ProgressCeiling)
		if err := c.store.Update(ctx, job); err != nil {
			logger.Error("record progress", logging.Error(err))
			return
		}
		c.publish(*job)
	}
}

func defaultStep(cfg *config.Config) func() int {
	low := cfg.Processing.ProgressStepMin
	high := cfg.Processing.ProgressStepMax
	if low < 1 {
		low = 1
	}
	if high < low {
		high = low
	}
	return func() int {
		return low + rand.IntN(high-low+1)
	}
}
