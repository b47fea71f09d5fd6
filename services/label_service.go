package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"demo-labeler/models"
)

var (
	ErrInvalidLabel    = errors.New("label must be -1, 0, or 1")
	ErrInvalidTimestep = errors.New("invalid timestep")
)

// FrameCounter reports the number of frames of a demo
type FrameCounter interface {
	Length(demo string) (int, error)
}

// LabelService stores per-frame labels. Frames without a row are UNSET.
type LabelService struct {
	db     *gorm.DB
	frames FrameCounter
	logger hclog.Logger
}

// NewLabelService creates a new label service
func NewLabelService(db *gorm.DB, frames FrameCounter, logger hclog.Logger) *LabelService {
	return &LabelService{
		db:     db,
		frames: frames,
		logger: logger.Named("labels"),
	}
}

// GetLabels returns one label per frame of demo. Rows beyond the current
// frame count are ignored.
func (s *LabelService) GetLabels(ctx context.Context, demo string) ([]models.Label, error) {
	length, err := s.frames.Length(demo)
	if err != nil {
		return nil, err
	}

	var rows []models.FrameLabel
	err = s.db.WithContext(ctx).
		Where("demo = ? AND frame >= 0 AND frame < ?", demo, length).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load labels of %s: %w", demo, err)
	}

	labels := make([]models.Label, length)
	for _, row := range rows {
		if row.Value.Valid() {
			labels[row.Frame] = row.Value
		}
	}
	return labels, nil
}

// UpdateLabel stores label for frame t of demo
func (s *LabelService) UpdateLabel(ctx context.Context, demo string, t int, label models.Label) error {
	if !label.Valid() {
		return ErrInvalidLabel
	}
	length, err := s.frames.Length(demo)
	if err != nil {
		return err
	}
	if t < 0 || t >= length {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidTimestep, t, length)
	}

	row := models.FrameLabel{Demo: demo, Frame: t, Value: label}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "demo"}, {Name: "frame"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store label: %w", err)
	}

	s.logger.Trace("label stored", "demo", demo, "t", t, "label", label)
	return nil
}

// ClearLabels resets every label of demo to UNSET
func (s *LabelService) ClearLabels(ctx context.Context, demo string) error {
	if _, err := s.frames.Length(demo); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Where("demo = ?", demo).Delete(&models.FrameLabel{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear labels of %s: %w", demo, res.Error)
	}

	s.logger.Info("labels cleared", "demo", demo, "rows", res.RowsAffected)
	return nil
}
