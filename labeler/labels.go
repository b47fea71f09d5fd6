package labeler

import "demo-labeler/models"

// LabelStore mirrors the remote per-frame labels of one session. It is not
// safe for concurrent use; the Controller guards it.
type LabelStore struct {
	labels []models.Label
}

// NewLabelStore copies labels into a new store. Unknown values are stored as UNSET.
func NewLabelStore(labels []models.Label) *LabelStore {
	s := &LabelStore{labels: make([]models.Label, len(labels))}
	for i, l := range labels {
		if l.Valid() {
			s.labels[i] = l
		}
	}
	return s
}

// Len is the number of slots.
func (s *LabelStore) Len() int {
	return len(s.labels)
}

// Get returns the label at index i.
func (s *LabelStore) Get(i int) (models.Label, bool) {
	if i < 0 || i >= len(s.labels) {
		return models.LabelUnset, false
	}
	return s.labels[i], true
}

// Set updates slot i. Out of range indexes and invalid values are refused.
func (s *LabelStore) Set(i int, l models.Label) bool {
	if i < 0 || i >= len(s.labels) || !l.Valid() {
		return false
	}
	s.labels[i] = l
	return true
}

// Reset replaces the contents with n UNSET slots.
func (s *LabelStore) Reset(n int) {
	if n < 0 {
		n = 0
	}
	s.labels = make([]models.Label, n)
}

// Labels returns a copy of the whole sequence.
func (s *LabelStore) Labels() []models.Label {
	out := make([]models.Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Counts tallies the slots by value.
func (s *LabelStore) Counts() (good, bad, unset int) {
	for _, l := range s.labels {
		switch l {
		case models.LabelGood:
			good++
		case models.LabelBad:
			bad++
		default:
			unset++
		}
	}
	return good, bad, unset
}
