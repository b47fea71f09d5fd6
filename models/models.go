package models

import "fmt"

// Label is a per-frame quality annotation
type Label int8

const (
	LabelBad   Label = -1
	LabelUnset Label = 0
	LabelGood  Label = 1
)

// Valid reports whether l is one of the three known label values
func (l Label) Valid() bool {
	return l == LabelBad || l == LabelUnset || l == LabelGood
}

func (l Label) String() string {
	switch l {
	case LabelGood:
		return "GOOD"
	case LabelBad:
		return "BAD"
	case LabelUnset:
		return "UNSET"
	}
	return fmt.Sprintf("Label(%d)", int8(l))
}

// DemosResponse is returned by GET /demos
type DemosResponse struct {
	Demos []string `json:"demos"`
}

// LengthResponse is returned by GET /demo/{demo}/length
type LengthResponse struct {
	Length int `json:"length"`
}

// CamerasResponse is returned by GET /demo/{demo}/cameras
type CamerasResponse struct {
	Cameras []string `json:"cameras"`
}

// LabelsResponse is returned by GET /demo/{demo}/labels
type LabelsResponse struct {
	Labels []Label `json:"labels"`
}

// UpdateLabelResponse is returned by POST /update_label
type UpdateLabelResponse struct {
	Status string `json:"status"`
	Demo   string `json:"demo"`
	T      int    `json:"t"`
	Label  Label  `json:"label"`
}

// StatusResponse is a bare acknowledgement
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries the reason a request was rejected
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// FrameLabel is the persisted label of a single frame
type FrameLabel struct {
	Demo      string `gorm:"primaryKey;size:255"`
	Frame     int    `gorm:"primaryKey;autoIncrement:false"`
	Value     Label  `gorm:"not null;default:0"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// SelectionState is what the labeler remembers between runs
type SelectionState struct {
	Demo        string `json:"demo"`
	Camera      string `json:"camera"`
	Mode        Label  `json:"mode"`
	LastUpdated int64  `json:"lastUpdated"` // Unix timestamp
}
