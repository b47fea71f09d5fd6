package labeler

import "time"

// Ticker is the recurring timer behind auto-play.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// playbackTimer is the handle of the single active auto-play timer.
type playbackTimer struct {
	ticker Ticker
	stop   chan struct{}
}

// Playing reports whether auto-play is running.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Play starts auto-play. It is a no-op returning false when a timer is
// already active.
func (c *Controller) Play() bool {
	c.mu.Lock()
	if c.timer != nil {
		c.mu.Unlock()
		return false
	}
	t := &playbackTimer{
		ticker: c.newTicker(c.period),
		stop:   make(chan struct{}),
	}
	c.timer = t
	c.logger.Debug("playback started", "demo", c.session, "cursor", c.cursor, "mode", c.mode)
	c.mu.Unlock()

	go c.run(t)
	c.notify()
	return true
}

// Pause stops auto-play. Once Pause returns no tick of the stopped timer
// changes any state. It is a no-op returning false when already stopped.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	stopped := c.stopLocked()
	c.mu.Unlock()
	if stopped {
		c.notify()
	}
	return stopped
}

// Toggle pauses a running playback or starts a stopped one and returns
// whether playback is running afterwards.
func (c *Controller) Toggle() bool {
	if c.Pause() {
		return false
	}
	return c.Play()
}

// Tick runs one auto-play step as if the timer fired. It does nothing
// while stopped.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.timer == nil {
		c.mu.Unlock()
		return
	}
	changed := c.tickLocked()
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Controller) run(t *playbackTimer) {
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C():
			c.fire(t)
		}
	}
}

// fire handles a tick of timer t. A tick that raced with Pause finds its
// handle replaced and leaves.
func (c *Controller) fire(t *playbackTimer) {
	c.mu.Lock()
	if c.timer != t {
		c.mu.Unlock()
		return
	}
	changed := c.tickLocked()
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// tickLocked applies the stop-at-end policy: the frame being left is
// labeled with the current mode and the cursor advances; at the last frame
// nothing is written and playback stops.
func (c *Controller) tickLocked() bool {
	if c.length <= 0 {
		return false
	}
	cur := c.cursor
	if cur+1 >= c.length {
		c.stopLocked()
		c.logger.Debug("playback reached end", "demo", c.session, "cursor", cur)
		return true
	}
	c.writeLocked(cur, c.mode.Label())
	c.cursor = cur + 1
	return true
}

// stopLocked invalidates the active timer handle.
func (c *Controller) stopLocked() bool {
	t := c.timer
	if t == nil {
		return false
	}
	c.timer = nil
	t.ticker.Stop()
	close(t.stop)
	c.logger.Debug("playback stopped", "demo", c.session, "cursor", c.cursor)
	return true
}
