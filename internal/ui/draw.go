// Package ui draws overlays on frames and shows them in a preview window.
package ui

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/presenter"
	"github.com/ayusman/handsign/internal/session"
)

// Overlay colors.
var (
	colorGreen  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorOrange = color.RGBA{R: 255, G: 165, B: 0, A: 0}
	colorCyan   = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	colorWhite  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	colorRed    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

const font = gocv.FontHersheySimplex

// pixel converts a normalized landmark to image coordinates.
func pixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// DrawHand draws the hand skeleton. A nil hand draws nothing.
func DrawHand(img *gocv.Mat, hand *detector.HandLandmarks) {
	if hand == nil || img.Empty() {
		return
	}

	w, h := img.Cols(), img.Rows()
	for _, c := range detector.Connections {
		gocv.Line(img, pixel(hand.Points[c[0]], w, h), pixel(hand.Points[c[1]], w, h), colorWhite, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(img, pixel(p, w, h), 4, colorRed, -1)
	}
}

// ProgressLines returns the status text for a collection frame.
func ProgressLines(p session.Progress) []string {
	switch p.State {
	case session.StateCollecting:
		return []string{fmt.Sprintf("Collecting %s: %d/%d", p.Sign, p.Collected, p.Target)}
	case session.StateDone:
		return []string{fmt.Sprintf("Done: %d samples", p.Committed)}
	default:
		return []string{
			fmt.Sprintf("Press 'c' to collect %s", p.Sign),
			"'r' redo, 'q' quit",
		}
	}
}

// DrawProgress writes the collection status in the top left corner.
func DrawProgress(img *gocv.Mat, p session.Progress) {
	lines := ProgressLines(p)
	gocv.PutText(img, lines[0], image.Pt(10, 30), font, 1, colorGreen, 2)
	for i, line := range lines[1:] {
		gocv.PutText(img, line, image.Pt(10, 60+30*i), font, 0.7, colorCyan, 2)
	}
}

// DecisionColor is green for a confident decision and orange otherwise.
func DecisionColor(t presenter.Tier) color.RGBA {
	if t == presenter.TierConfident {
		return colorGreen
	}
	return colorOrange
}

// DrawDecision writes the decision in the top left corner. The runner-up,
// when present, is drawn smaller below it.
func DrawDecision(img *gocv.Mat, d presenter.Decision) {
	lines := d.Lines()
	gocv.PutText(img, lines[0], image.Pt(10, 30), font, 1, DecisionColor(d.Tier), 2)
	if len(lines) > 1 {
		gocv.PutText(img, lines[1], image.Pt(10, 60), font, 0.7, colorOrange, 2)
	}
}

// DrawHint writes a one-line hint along the bottom edge.
func DrawHint(img *gocv.Mat, text string) {
	gocv.PutText(img, text, image.Pt(10, img.Rows()-20), font, 0.7, colorWhite, 2)
}
