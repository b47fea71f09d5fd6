package tui

import (
	"strings"

	"demo-labeler/models"
)

const (
	cellGlyph   = "█"
	cursorGlyph = "▲"
)

// timeline maps frames onto a fixed number of terminal cells. With more
// frames than cells each cell covers a contiguous bucket of frames.
type timeline struct {
	length int
	cells  int
}

func newTimeline(length, width int) timeline {
	if length <= 0 || width <= 0 {
		return timeline{}
	}
	cells := width
	if length < cells {
		cells = length
	}
	return timeline{length: length, cells: cells}
}

// bucket returns the frames [start, end) shown by cell x.
func (tl timeline) bucket(x int) (start, end int) {
	return x * tl.length / tl.cells, (x + 1) * tl.length / tl.cells
}

// frameAt returns the first frame of the cell at column x, or -1.
func (tl timeline) frameAt(x int) int {
	if tl.cells == 0 || x < 0 || x >= tl.cells {
		return -1
	}
	start, _ := tl.bucket(x)
	return start
}

// cellOf returns the column showing frame.
func (tl timeline) cellOf(frame int) int {
	if tl.cells == 0 || frame < 0 || frame >= tl.length {
		return -1
	}
	return frame * tl.cells / tl.length
}

// summarize picks the label a bucket is drawn with. BAD wins ties so a
// single bad frame stays visible in a long bucket.
func summarize(labels []models.Label) models.Label {
	good, bad := 0, 0
	for _, l := range labels {
		switch l {
		case models.LabelGood:
			good++
		case models.LabelBad:
			bad++
		}
	}
	switch {
	case bad == 0 && good == 0:
		return models.LabelUnset
	case bad >= good:
		return models.LabelBad
	default:
		return models.LabelGood
	}
}

// render draws the label bar and, on a second line, the cursor marker.
// labels shorter than length are drawn as UNSET.
func (tl timeline) render(th theme, labels []models.Label, cursor int) (bar, marker string) {
	if tl.cells == 0 {
		return "", ""
	}
	var sb strings.Builder
	for x := 0; x < tl.cells; x++ {
		start, end := tl.bucket(x)
		var bucket []models.Label
		if end <= len(labels) {
			bucket = labels[start:end]
		}
		switch summarize(bucket) {
		case models.LabelGood:
			sb.WriteString(th.cellGood.Render(cellGlyph))
		case models.LabelBad:
			sb.WriteString(th.cellBad.Render(cellGlyph))
		default:
			sb.WriteString(th.cellUnset.Render(cellGlyph))
		}
	}
	bar = sb.String()

	if c := tl.cellOf(cursor); c >= 0 {
		marker = strings.Repeat(" ", c) + th.cellCursor.Render(cursorGlyph)
	}
	return bar, marker
}
