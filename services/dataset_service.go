package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"demo-labeler/config"
	"demo-labeler/utils"
)

var (
	ErrDemoNotFound    = errors.New("demo not found")
	ErrCameraNotFound  = errors.New("camera not found")
	ErrFrameOutOfRange = errors.New("frame index out of range")
)

// DatasetService indexes recorded demos on disk. The dataset directory holds
// one directory per demo, one directory per camera inside it, and the frame
// images of that camera sorted by file name.
type DatasetService struct {
	config *config.ServerConfig
	logger hclog.Logger

	mu      sync.RWMutex
	demos   []string
	scanned bool
	index   map[string]*demoIndex
	// versions count invalidations per demo; "" is the demo list. A scan
	// is only cached when no invalidation happened while it ran.
	versions map[string]uint64
}

type demoIndex struct {
	cameras []string
	frames  map[string][]string
	length  int
}

// NewDatasetService creates a new dataset service
func NewDatasetService(cfg *config.ServerConfig, logger hclog.Logger) *DatasetService {
	return &DatasetService{
		config:   cfg,
		logger:   logger.Named("datasets"),
		index:    make(map[string]*demoIndex),
		versions: make(map[string]uint64),
	}
}

// ListDemos returns every demo of the dataset, sorted by name
func (s *DatasetService) ListDemos() ([]string, error) {
	s.mu.RLock()
	if s.scanned {
		demos := append([]string(nil), s.demos...)
		s.mu.RUnlock()
		return demos, nil
	}
	version := s.versions[""]
	s.mu.RUnlock()

	if !utils.FileExists(s.config.DataDir) {
		s.logger.Warn("dataset directory not found", "dir", s.config.DataDir)
		return []string{}, nil
	}

	demos, err := utils.ListDirs(s.config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list demos: %w", err)
	}
	if demos == nil {
		demos = []string{}
	}

	s.mu.Lock()
	if s.versions[""] == version {
		s.demos = demos
		s.scanned = true
	}
	s.mu.Unlock()

	s.logger.Debug("demos scanned", "count", len(demos))
	return append([]string(nil), demos...), nil
}

// Length returns the number of frames every camera of demo can serve
func (s *DatasetService) Length(demo string) (int, error) {
	idx, err := s.lookup(demo)
	if err != nil {
		return 0, err
	}
	return idx.length, nil
}

// Cameras returns the cameras recorded in demo
func (s *DatasetService) Cameras(demo string) ([]string, error) {
	idx, err := s.lookup(demo)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), idx.cameras...), nil
}

// FramePath returns the image file of frame t seen by camera
func (s *DatasetService) FramePath(demo string, t int, camera string) (string, error) {
	idx, err := s.lookup(demo)
	if err != nil {
		return "", err
	}
	frames, ok := idx.frames[camera]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCameraNotFound, camera)
	}
	if t < 0 || t >= idx.length {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrFrameOutOfRange, t, idx.length)
	}
	return frames[t], nil
}

// Invalidate drops the cached index of demo, or of the demo list when demo
// is empty
func (s *DatasetService) Invalidate(demo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[demo]++
	if demo == "" {
		s.scanned = false
		s.demos = nil
		return
	}
	delete(s.index, demo)
}

func (s *DatasetService) lookup(demo string) (*demoIndex, error) {
	s.mu.RLock()
	idx, ok := s.index[demo]
	version := s.versions[demo]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	demos, err := s.ListDemos()
	if err != nil {
		return nil, err
	}
	known := false
	for _, d := range demos {
		if d == demo {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrDemoNotFound, demo)
	}

	idx, err = s.scanDemo(demo)
	if err != nil {
		return nil, err
	}

	s.storeIndex(demo, idx, version)
	return idx, nil
}

// storeIndex caches idx unless demo was invalidated since version was read.
func (s *DatasetService) storeIndex(demo string, idx *demoIndex, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[demo] != version {
		s.logger.Trace("dropping stale index", "demo", demo)
		return false
	}
	s.index[demo] = idx
	return true
}

// scanDemo finds the cameras of demo: sub-directories holding at least one
// frame image. The length is the shortest camera's frame count.
func (s *DatasetService) scanDemo(demo string) (*demoIndex, error) {
	demoDir := filepath.Join(s.config.DataDir, demo)
	dirs, err := utils.ListDirs(demoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras of %s: %w", demo, err)
	}

	idx := &demoIndex{cameras: []string{}, frames: make(map[string][]string)}
	for _, dir := range dirs {
		frames, err := utils.FindFiles(filepath.Join(demoDir, dir), s.config.FrameFilePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to list frames of %s/%s: %w", demo, dir, err)
		}
		if len(frames) == 0 {
			continue
		}
		idx.cameras = append(idx.cameras, dir)
		idx.frames[dir] = frames
		if len(idx.cameras) == 1 || len(frames) < idx.length {
			idx.length = len(frames)
		}
	}

	s.logger.Debug("demo indexed", "demo", demo, "cameras", len(idx.cameras), "length", idx.length)
	return idx, nil
}

// Watch keeps the cached indexes in sync with the dataset directory until
// ctx ends
func (s *DatasetService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	root := filepath.Clean(s.config.DataDir)
	if err := s.addTree(watcher, root, 2); err != nil {
		return err
	}
	s.logger.Info("watching dataset", "dir", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, root, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("dataset watcher error", "error", err)
		}
	}
}

func (s *DatasetService) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) {
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	parts := strings.Split(rel, string(filepath.Separator))
	demo := parts[0]

	if len(parts) == 1 {
		s.Invalidate("")
	}
	s.Invalidate(demo)

	// new demo or camera directories need their own watch
	if event.Has(fsnotify.Create) && len(parts) <= 2 {
		if err := s.addTree(watcher, event.Name, 2-len(parts)); err != nil {
			s.logger.Debug("not watching new path", "path", event.Name, "error", err)
		}
	}
	s.logger.Trace("dataset changed", "demo", demo, "op", event.Op.String())
}

// addTree watches dir and its sub-directories down to depth levels.
func (s *DatasetService) addTree(watcher *fsnotify.Watcher, dir string, depth int) error {
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if depth <= 0 {
		return nil
	}
	subdirs, err := utils.ListDirs(dir)
	if err != nil {
		return nil
	}
	for _, sub := range subdirs {
		if err := s.addTree(watcher, filepath.Join(dir, sub), depth-1); err != nil {
			return err
		}
	}
	return nil
}
