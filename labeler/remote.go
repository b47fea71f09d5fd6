// Package labeler holds the playback-and-labeling state machine of the
// demo labeler: the session loader, the client-side label mirror, the
// playback cursor, the label mode and the auto-play driver.
//
// All state lives in a Controller. Its methods are the only transitions;
// they are serialized by one mutex and never block on the network. Remote
// calls are submitted as Tasks and the local mirror is updated before the
// call leaves.
package labeler

import (
	"context"
	"errors"

	"demo-labeler/models"
)

// Remote is the labeling service as seen by the controller.
type Remote interface {
	ListDemos(ctx context.Context) ([]string, error)
	Length(ctx context.Context, demo string) (int, error)
	Cameras(ctx context.Context, demo string) ([]string, error)
	Labels(ctx context.Context, demo string) ([]models.Label, error)
	UpdateLabel(ctx context.Context, demo string, t int, label models.Label) error
	ClearLabels(ctx context.Context, demo string) error
}

// FrameLinker turns a (demo, frame, camera) triple into an image reference.
type FrameLinker interface {
	FrameURL(demo string, t int, camera string) string
}

var (
	ErrNoSession       = errors.New("no session selected")
	ErrNoFrames        = errors.New("session has no frames")
	ErrFrameOutOfRange = errors.New("frame index out of range")
	ErrInvalidMode     = errors.New("label mode must be GOOD or BAD")
	ErrInvalidLabel    = errors.New("invalid label value")
	ErrUnknownCamera   = errors.New("camera not in session")
)
