// Package action turns gesture events into OS side effects.
package action

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Cursor moves the pointer to absolute screen coordinates.
type Cursor interface {
	MoveCursorTo(x, y int) error
}

// ScreenSize is the pixel size of the display that cursor coordinates map onto.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dispatcher maps gated gesture events to cursor actions.
type Dispatcher struct {
	cursor Cursor
	screen ScreenSize
	log    *logrus.Entry
}

// NewDispatcher creates a Dispatcher driving cursor over screen.
func NewDispatcher(cursor Cursor, screen ScreenSize, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		cursor: cursor,
		screen: screen,
		log:    log,
	}
}

// Screen returns the display size used for mapping.
func (d *Dispatcher) Screen() ScreenSize {
	return d.screen
}

// Dispatch performs the side effect for ev. Nothing happens while mouse
// control is disabled.
//
// Point moves the cursor to the index fingertip scaled to the screen.
// Thumbs Up is reserved for a click and currently does nothing. Cursor
// failures are logged and returned; they are never retried.
func (d *Dispatcher) Dispatch(ev gesture.Event, mouseEnabled bool) error {
	if !mouseEnabled {
		return nil
	}

	switch ev.Label {
	case gesture.Point:
		return d.movePointer(ev)
	case gesture.ThumbsUp:
		// Reserved for a click action.
		return nil
	default:
		return nil
	}
}

func (d *Dispatcher) movePointer(ev gesture.Event) error {
	if ev.Pose == nil {
		return fmt.Errorf("point event without pose: %w", gesture.ErrPointCount)
	}
	tip, err := ev.Pose.Point(detector.IndexTip)
	if err != nil {
		return fmt.Errorf("index tip: %w", err)
	}

	x, y := d.screen.Map(tip)
	if err := d.cursor.MoveCursorTo(x, y); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"x": x, "y": y}).Warn("cursor move failed")
		return fmt.Errorf("move cursor: %w", err)
	}

	d.log.WithFields(logrus.Fields{"x": x, "y": y}).Debug("cursor moved")
	return nil
}

// Map scales a normalized point to pixel coordinates, truncating toward zero.
func (s ScreenSize) Map(p detector.Point3D) (int, int) {
	return int(p.X * float64(s.Width)), int(p.Y * float64(s.Height))
}
