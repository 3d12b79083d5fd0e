// Package overlay annotates frames for display and encodes them as JPEG.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// Display defaults.
const (
	MaxWidth  = 640
	MaxHeight = 480
)

var (
	landmarkColor = color.RGBA{R: 136, G: 255, B: 0, A: 255}
	labelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	shadowColor   = color.RGBA{A: 255}
)

// DrawHand draws the hand skeleton and keypoints of pose onto frame.
// Invalid poses are ignored.
func DrawHand(frame *gocv.Mat, pose *detector.HandPose) {
	if !pose.Valid() {
		return
	}

	w, h := frame.Cols(), frame.Rows()
	pt := func(i int) image.Point {
		p := pose.Points[i]
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	for _, c := range detector.Connections {
		gocv.Line(frame, pt(c[0]), pt(c[1]), landmarkColor, 2)
	}
	for i := range pose.Points {
		gocv.Circle(frame, pt(i), 2, landmarkColor, 2)
	}
}

// DrawLabel writes text in the top-left corner of frame.
func DrawLabel(frame *gocv.Mat, text string) {
	origin := image.Pt(10, 30)
	gocv.PutText(frame, text, origin.Add(image.Pt(1, 1)), gocv.FontHersheySimplex, 0.8, shadowColor, 3)
	gocv.PutText(frame, text, origin, gocv.FontHersheySimplex, 0.8, labelColor, 2)
}

// DisplaySize fits a w×h frame into maxW×maxH, keeping the aspect ratio.
// Frames smaller than the box are scaled up.
func DisplaySize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return int(float64(w) * scale), int(float64(h) * scale)
}

// Encode scales frame into maxW×maxH and returns it as JPEG bytes.
func Encode(frame gocv.Mat, maxW, maxH int) ([]byte, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("encode: empty frame")
	}

	w, h := DisplaySize(frame.Cols(), frame.Rows(), maxW, maxH)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("encode: display size %dx%d", w, h)
	}

	src := frame
	if w != frame.Cols() || h != frame.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(frame, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
		src = resized
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
