package action

import "github.com/go-vgo/robotgo"

// RobotCursor moves the system pointer in process.
type RobotCursor struct{}

// MoveCursorTo implements Cursor.
func (RobotCursor) MoveCursorTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// DetectScreenSize returns the primary display size, or fallback when the
// platform reports nothing usable.
func DetectScreenSize(fallback ScreenSize) ScreenSize {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return fallback
	}
	return ScreenSize{Width: w, Height: h}
}
