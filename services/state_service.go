package services

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
	"demo-labeler/utils"
)

// StateService remembers the labeler's last selection between runs
type StateService struct {
	stateFile string
	state     models.SelectionState
	mutex     sync.RWMutex
	logger    hclog.Logger
}

// NewStateService creates a new state service
func NewStateService(stateFile string, logger hclog.Logger) *StateService {
	service := &StateService{
		stateFile: stateFile,
		state:     models.SelectionState{Mode: models.LabelGood},
		logger:    logger.Named("state"),
	}

	// Load existing state if it exists
	service.loadState()
	return service
}

// GetState returns the remembered selection
func (s *StateService) GetState() models.SelectionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// UpdateState records a selection and saves it
func (s *StateService) UpdateState(demo, camera string, mode models.Label) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.Demo == demo && s.state.Camera == camera && s.state.Mode == mode {
		return nil
	}

	s.state.Demo = demo
	s.state.Camera = camera
	s.state.Mode = mode
	s.state.LastUpdated = time.Now().Unix()

	if err := utils.WriteJSON(s.stateFile, s.state); err != nil {
		s.logger.Warn("failed to save state", "file", s.stateFile, "error", err)
		return err
	}

	s.logger.Debug("state saved", "demo", demo, "camera", camera, "mode", mode)
	return nil
}

// loadState loads the state from file
func (s *StateService) loadState() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !utils.FileExists(s.stateFile) {
		s.logger.Debug("state file not found, using defaults", "file", s.stateFile)
		return
	}

	var loaded models.SelectionState
	if err := utils.ReadJSON(s.stateFile, &loaded); err != nil {
		s.logger.Warn("error reading state file, using defaults", "file", s.stateFile, "error", err)
		return
	}
	if loaded.Mode != models.LabelGood && loaded.Mode != models.LabelBad {
		loaded.Mode = models.LabelGood
	}
	s.state = loaded
	s.logger.Debug("state loaded", "demo", loaded.Demo, "camera", loaded.Camera)
}
