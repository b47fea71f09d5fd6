package labeler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
)

const (
	// FPS is the auto-play rate; one frame is labeled per tick.
	FPS = 10
	// DefaultPeriod is the auto-play tick period.
	DefaultPeriod = time.Second / FPS

	defaultRequestTimeout = 10 * time.Second
	closeGrace            = 2 * time.Second
)

// Mode is the label value armed for writes: GOOD or BAD, never UNSET.
type Mode int8

const (
	ModeGood = Mode(models.LabelGood)
	ModeBad  = Mode(models.LabelBad)
)

// ModeFromLabel converts a label into a mode.
func ModeFromLabel(l models.Label) (Mode, error) {
	m := Mode(l)
	if !m.Valid() {
		return ModeGood, fmt.Errorf("%w: %s", ErrInvalidMode, l)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	return m == ModeGood || m == ModeBad
}

// Label is the value written for this mode.
func (m Mode) Label() models.Label {
	return models.Label(m)
}

func (m Mode) String() string {
	return models.Label(m).String()
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Logger         hclog.Logger
	Period         time.Duration
	RequestTimeout time.Duration
	// NewTicker creates the auto-play timer; tests substitute a manual one.
	NewTicker func(d time.Duration) Ticker
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Demos   []string
	Session string
	Loading bool
	Length  int
	Cameras []string
	Camera  string
	Cursor  int
	Mode    Mode
	Playing bool
	Labels  []models.Label

	Good, Bad, Unset int
}

// LabelsReady reports whether the label array is aligned with the frames.
func (s Snapshot) LabelsReady() bool {
	return s.Length > 0 && len(s.Labels) == s.Length
}

// MaxFrame is the last valid cursor position, 0 for an empty session.
func (s Snapshot) MaxFrame() int {
	if s.Length <= 0 {
		return 0
	}
	return s.Length - 1
}

// Controller owns the cursor, the label mode, the label mirror and the
// playback timer of the labeler.
type Controller struct {
	remote    Remote
	logger    hclog.Logger
	tasks     *Submitter
	period    time.Duration
	newTicker func(time.Duration) Ticker
	changes   chan struct{}

	mu              sync.Mutex
	demos           []string
	session         string
	generation      uint64
	loading         bool
	length          int
	cameras         []string
	camera          string
	preferredCamera string
	store           *LabelStore
	cursor          int
	mode            Mode
	timer           *playbackTimer

	// clears holds the ClearAll calls of this session still in flight.
	clears []*pendingClear
	// labelEpoch advances when a clear succeeds; label fetches issued
	// before that are dropped.
	labelEpoch uint64
	// rebuild is a succeeded clear waiting for the frame count.
	rebuild *pendingClear
}

// pendingClear records the writes issued after a clear was sent, so the
// mirror can replay them once the clear succeeded.
type pendingClear struct {
	gen    uint64
	writes map[int]models.Label
}

// NewController creates a stopped controller with no session selected and
// the GOOD mode armed.
func NewController(remote Remote, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.NewTicker == nil {
		opts.NewTicker = newTimeTicker
	}

	logger := opts.Logger.Named("controller")
	return &Controller{
		remote:    remote,
		logger:    logger,
		tasks:     NewSubmitter(logger, opts.RequestTimeout),
		period:    opts.Period,
		newTicker: opts.NewTicker,
		changes:   make(chan struct{}, 1),
		store:     NewLabelStore(nil),
		mode:      ModeGood,
	}
}

// Changes receives a value after state changed. Bursts are coalesced, so
// readers should take a fresh Snapshot on every receive.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Demos:   append([]string(nil), c.demos...),
		Session: c.session,
		Loading: c.loading,
		Length:  c.length,
		Cameras: append([]string(nil), c.cameras...),
		Camera:  c.camera,
		Cursor:  c.cursor,
		Mode:    c.mode,
		Playing: c.timer != nil,
		Labels:  c.store.Labels(),
	}
	s.Good, s.Bad, s.Unset = c.store.Counts()
	return s
}

// Cursor is the current frame index.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Seek moves the cursor to i, clamped to the session's frames. It never
// writes a label and leaves playback untouched. Seek is refused while the
// session has no frames.
func (c *Controller) Seek(i int) bool {
	c.mu.Lock()
	ok := c.seekLocked(i)
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

// JumpToFrame is the timeline click: an absolute seek to frame i.
func (c *Controller) JumpToFrame(i int) bool {
	return c.Seek(i)
}

// Step moves the cursor by delta frames.
func (c *Controller) Step(delta int) bool {
	c.mu.Lock()
	ok := c.seekLocked(c.cursor + delta)
	c.mu.Unlock()
	if ok {
		c.notify()
	}
	return ok
}

func (c *Controller) seekLocked(i int) bool {
	if c.length <= 0 {
		return false
	}
	c.cursor = clamp(i, 0, c.length-1)
	return true
}

// Mode returns the armed label mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode arms m. A running playback uses it from its next tick on.
func (c *Controller) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int8(m))
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetCamera selects one of the session's cameras.
func (c *Controller) SetCamera(camera string) error {
	c.mu.Lock()
	if !contains(c.cameras, camera) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownCamera, camera)
	}
	c.camera = camera
	c.preferredCamera = camera
	c.mu.Unlock()
	c.notify()
	return nil
}

// CycleCamera selects the next camera of the session and returns it.
func (c *Controller) CycleCamera() (string, bool) {
	c.mu.Lock()
	if len(c.cameras) == 0 {
		c.mu.Unlock()
		return "", false
	}
	next := 0
	for i, cam := range c.cameras {
		if cam == c.camera {
			next = (i + 1) % len(c.cameras)
			break
		}
	}
	c.camera = c.cameras[next]
	c.preferredCamera = c.camera
	camera := c.camera
	c.mu.Unlock()
	c.notify()
	return camera, true
}

// PreferCamera is picked when the next camera list containing it loads.
func (c *Controller) PreferCamera(camera string) {
	c.mu.Lock()
	c.preferredCamera = camera
	c.mu.Unlock()
}

// LabelFrame writes l for frame i through the same path as auto-play.
func (c *Controller) LabelFrame(i int, l models.Label) error {
	c.mu.Lock()
	err := c.labelLocked(i, l)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()
	return nil
}

// LabelCurrent writes the armed mode for the frame under the cursor.
func (c *Controller) LabelCurrent() error {
	return c.labelCursor(func() models.Label { return c.mode.Label() })
}

// UnsetCurrent resets the frame under the cursor to UNSET.
func (c *Controller) UnsetCurrent() error {
	return c.labelCursor(func() models.Label { return models.LabelUnset })
}

// labelCursor reads the cursor and writes the label picked by value in one
// critical section, so a playback tick cannot move the cursor in between.
func (c *Controller) labelCursor(value func() models.Label) error {
	c.mu.Lock()
	err := c.labelLocked(c.cursor, value())
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()
	return nil
}

func (c *Controller) labelLocked(i int, l models.Label) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLabel, int8(l))
	}
	if c.session == "" {
		return ErrNoSession
	}
	if c.length <= 0 {
		return ErrNoFrames
	}
	if i < 0 || i >= c.length {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrFrameOutOfRange, i, c.length)
	}
	c.writeLocked(i, l)
	return nil
}

// writeLocked updates the mirror, then queues the remote write without
// waiting for it. Writes reach the service in the order they were issued.
// A failed remote write is logged and not rolled back.
func (c *Controller) writeLocked(i int, l models.Label) *Task {
	if c.store.Len() == c.length {
		c.store.Set(i, l)
	}
	for _, pc := range c.clears {
		pc.writes[i] = l
	}
	demo := c.session
	return c.tasks.Enqueue("update_label", func(ctx context.Context) error {
		return c.remote.UpdateLabel(ctx, demo, i, l)
	})
}

// ClearAll asks the service to reset every label of the session. The clear
// is queued behind the writes issued before it. The local mirror is reset
// to UNSET once the service accepted the request, and only if the same
// session is still selected; writes issued while the clear was in flight
// are applied again on top of the reset.
func (c *Controller) ClearAll() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	demo := c.session
	if demo == "" {
		return completedTask("clear_labels", ErrNoSession)
	}

	pc := &pendingClear{gen: c.generation, writes: make(map[int]models.Label)}
	c.clears = append(c.clears, pc)

	return c.tasks.Enqueue("clear_labels", func(ctx context.Context) error {
		err := c.remote.ClearLabels(ctx, demo)

		c.mu.Lock()
		c.dropClearLocked(pc)
		if err != nil || pc.gen != c.generation {
			c.mu.Unlock()
			if err != nil {
				return fmt.Errorf("clear labels of %s: %w", demo, err)
			}
			return nil
		}
		c.labelEpoch++
		if c.length > 0 {
			c.rebuildLocked(pc)
		} else {
			c.rebuild = pc
		}
		c.mu.Unlock()

		c.logger.Info("labels cleared", "demo", demo)
		c.notify()
		return nil
	})
}

func (c *Controller) dropClearLocked(pc *pendingClear) {
	for i, p := range c.clears {
		if p == pc {
			c.clears = append(c.clears[:i], c.clears[i+1:]...)
			return
		}
	}
}

// rebuildLocked sets the mirror to UNSET plus the writes issued after the
// clear pc.
func (c *Controller) rebuildLocked(pc *pendingClear) {
	c.store.Reset(c.length)
	for i, l := range pc.writes {
		c.store.Set(i, l)
	}
	c.rebuild = nil
}

// Flush waits for all submitted remote calls.
func (c *Controller) Flush() {
	c.tasks.Flush()
}

// Close stops playback and drains the pending remote calls.
func (c *Controller) Close() {
	c.Pause()
	c.tasks.Close(closeGrace)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
