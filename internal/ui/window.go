package ui

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/presenter"
	"github.com/ayusman/handsign/internal/session"
)

const (
	collectHint   = "Move hand slightly between frames"
	recognizeHint = "Show hand sign in frame"
)

// Overlay draws collection and recognition state onto frames without
// displaying them.
type Overlay struct{}

// RenderCollect draws the hand and the collection status.
func (Overlay) RenderCollect(frame *gocv.Mat, hand *detector.HandLandmarks, p session.Progress) {
	DrawHand(frame, hand)
	DrawProgress(frame, p)
	DrawHint(frame, collectHint)
}

// RenderDecision draws the hand and, when present, the decision.
func (Overlay) RenderDecision(frame *gocv.Mat, hand *detector.HandLandmarks, d *presenter.Decision) {
	DrawHand(frame, hand)
	if d != nil {
		DrawDecision(frame, *d)
	}
	DrawHint(frame, recognizeHint)
}

// Window is a preview window that also reports key presses as events.
type Window struct {
	Overlay
	win *gocv.Window
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Poll waits briefly for a key press and maps it to an event.
func (w *Window) Poll() session.Event {
	return KeyEvent(w.win.WaitKey(1))
}

// RenderCollect draws the collection overlay and shows the frame.
func (w *Window) RenderCollect(frame *gocv.Mat, hand *detector.HandLandmarks, p session.Progress) {
	w.Overlay.RenderCollect(frame, hand, p)
	w.win.IMShow(*frame)
}

// RenderDecision draws the decision overlay and shows the frame.
func (w *Window) RenderDecision(frame *gocv.Mat, hand *detector.HandLandmarks, d *presenter.Decision) {
	w.Overlay.RenderDecision(frame, hand, d)
	w.win.IMShow(*frame)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
