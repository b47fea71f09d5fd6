package labeler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"demo-labeler/models"
)

type labelWrite struct {
	demo  string
	t     int
	label models.Label
}

type fakeDemo struct {
	length  int
	cameras []string
	labels  []models.Label
}

// fakeRemote is an in-memory labeling service that records every write.
type fakeRemote struct {
	mu     sync.Mutex
	demos  map[string]*fakeDemo
	writes []labelWrite
	clears []string

	lengthErr  error
	camerasErr error
	clearErr   error
	// lengthGate, when set, holds Length calls for the named demo until closed.
	lengthGate map[string]chan struct{}
	// labelsGate holds the answer of Labels calls, read before the wait,
	// until closed.
	labelsGate map[string]chan struct{}
	// clearGate, when set, holds ClearLabels calls until closed.
	clearGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		demos:      make(map[string]*fakeDemo),
		lengthGate: make(map[string]chan struct{}),
		labelsGate: make(map[string]chan struct{}),
	}
}

func (f *fakeRemote) addDemo(name string, length int, cameras ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.demos[name] = &fakeDemo{
		length:  length,
		cameras: cameras,
		labels:  make([]models.Label, length),
	}
}

func (f *fakeRemote) demo(name string) (*fakeDemo, error) {
	d, ok := f.demos[name]
	if !ok {
		return nil, fmt.Errorf("no demo %s", name)
	}
	return d, nil
}

func (f *fakeRemote) ListDemos(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for name := range f.demos {
		out = append(out, name)
	}
	return out, nil
}

func (f *fakeRemote) Length(ctx context.Context, demo string) (int, error) {
	f.mu.Lock()
	gate := f.lengthGate[demo]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lengthErr != nil {
		return 0, f.lengthErr
	}
	d, err := f.demo(demo)
	if err != nil {
		return 0, err
	}
	return d.length, nil
}

func (f *fakeRemote) Cameras(ctx context.Context, demo string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.camerasErr != nil {
		return nil, f.camerasErr
	}
	d, err := f.demo(demo)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.cameras...), nil
}

func (f *fakeRemote) Labels(ctx context.Context, demo string) ([]models.Label, error) {
	f.mu.Lock()
	d, err := f.demo(demo)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	labels := append([]models.Label(nil), d.labels...)
	gate := f.labelsGate[demo]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return labels, nil
}

func (f *fakeRemote) UpdateLabel(ctx context.Context, demo string, t int, label models.Label) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, labelWrite{demo: demo, t: t, label: label})
	d, err := f.demo(demo)
	if err != nil {
		return err
	}
	if t < 0 || t >= d.length {
		return errors.New("invalid timestep")
	}
	d.labels[t] = label
	return nil
}

func (f *fakeRemote) ClearLabels(ctx context.Context, demo string) error {
	f.mu.Lock()
	gate := f.clearGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, demo)
	if f.clearErr != nil {
		return f.clearErr
	}
	d, err := f.demo(demo)
	if err != nil {
		return err
	}
	d.labels = make([]models.Label, d.length)
	return nil
}

func (f *fakeRemote) recordedWrites() []labelWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]labelWrite(nil), f.writes...)
}

// storedLabels is what the service holds for demo.
func (f *fakeRemote) storedLabels(demo string) []models.Label {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Label(nil), f.demos[demo].labels...)
}

func (f *fakeRemote) recordedClears() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clears...)
}

// manualTicker only fires when the test sends on it.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire delivers one tick to the playback goroutine.
func (t *manualTicker) fire(tb testing.TB) {
	tb.Helper()
	select {
	case t.ch <- time.Now():
	case <-time.After(time.Second):
		tb.Fatal("playback goroutine did not receive the tick")
	}
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
	periods []time.Duration
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	f.periods = append(f.periods, d)
	return t
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

// active counts tickers that were created and not stopped.
func (f *tickerFactory) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T, remote *fakeRemote) (*Controller, *tickerFactory) {
	t.Helper()
	tickers := &tickerFactory{}
	c := NewController(remote, Options{
		Logger:         hclog.NewNullLogger(),
		RequestTimeout: time.Second,
		NewTicker:      tickers.New,
	})
	t.Cleanup(c.Close)
	return c, tickers
}

// loadSession selects demo and waits for its metadata.
func loadSession(t *testing.T, c *Controller, demo string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.SelectSession(demo).Wait(ctx))
}

func waitTask(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return task.Wait(ctx)
}
