package labeler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"demo-labeler/models"
)

// LoadDemos refreshes the list of sessions offered by the service. On
// failure the previous list is kept.
func (c *Controller) LoadDemos() *Task {
	return c.tasks.Submit("list_demos", func(ctx context.Context) error {
		demos, err := c.remote.ListDemos(ctx)
		if err != nil {
			return fmt.Errorf("list demos: %w", err)
		}
		c.mu.Lock()
		c.demos = append([]string(nil), demos...)
		c.mu.Unlock()
		c.logger.Debug("demos loaded", "count", len(demos))
		c.notify()
		return nil
	})
}

// SelectSession switches to demo. Playback is stopped and every piece of
// per-session state is emptied before the frame count, the cameras and the
// labels are fetched concurrently. Each result is applied as it arrives; a
// result that belongs to an earlier selection is dropped. The returned task
// completes when all three fetches have returned and carries the first
// failure.
func (c *Controller) SelectSession(demo string) *Task {
	c.mu.Lock()
	c.stopLocked()
	c.generation++
	gen := c.generation
	c.session = demo
	c.length = 0
	c.cursor = 0
	c.cameras = nil
	c.camera = ""
	c.store = NewLabelStore(nil)
	c.clears = nil
	c.rebuild = nil
	epoch := c.labelEpoch
	c.loading = demo != ""
	c.mu.Unlock()
	c.notify()

	if demo == "" {
		return completedTask("load_session", nil)
	}
	c.logger.Info("loading session", "demo", demo)

	return c.tasks.Submit("load_session", func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error {
			n, err := c.remote.Length(ctx, demo)
			if err != nil {
				return fmt.Errorf("length of %s: %w", demo, err)
			}
			c.applyLength(gen, n)
			return nil
		})
		g.Go(func() error {
			cams, err := c.remote.Cameras(ctx, demo)
			if err != nil {
				return fmt.Errorf("cameras of %s: %w", demo, err)
			}
			c.applyCameras(gen, cams)
			return nil
		})
		g.Go(func() error {
			labels, err := c.remote.Labels(ctx, demo)
			if err != nil {
				return fmt.Errorf("labels of %s: %w", demo, err)
			}
			c.applyLabels(gen, epoch, labels)
			return nil
		})

		err := g.Wait()
		c.finishLoad(gen)
		return err
	})
}

// applyLength publishes the frame count and rewinds the cursor. A running
// playback is left alone and continues from frame 0.
func (c *Controller) applyLength(gen uint64, n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.length = n
	c.cursor = 0
	if c.rebuild != nil {
		c.rebuildLocked(c.rebuild)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) applyCameras(gen uint64, cameras []string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.cameras = append([]string(nil), cameras...)
	switch {
	case len(c.cameras) == 0:
		c.camera = ""
	case contains(c.cameras, c.preferredCamera):
		c.camera = c.preferredCamera
	default:
		c.camera = c.cameras[0]
	}
	c.mu.Unlock()
	c.notify()
}

// applyLabels replaces the mirror with fetched labels. A fetch issued
// before a clear succeeded is dropped; the clear rebuilt the mirror.
func (c *Controller) applyLabels(gen, epoch uint64, labels []models.Label) {
	c.mu.Lock()
	if gen != c.generation || epoch != c.labelEpoch {
		c.mu.Unlock()
		return
	}
	c.store = NewLabelStore(labels)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) finishLoad(gen uint64) {
	c.mu.Lock()
	if gen == c.generation {
		c.loading = false
	}
	c.mu.Unlock()
	c.notify()
}
