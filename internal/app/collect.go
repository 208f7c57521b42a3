package app

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/session"
)

// Collect drives rec with camera frames until every sign is collected or the
// session is quit. Cancelling ctx acts as a quit, so the in-progress segment
// is kept.
func (a *App) Collect(ctx context.Context, rec *session.Recorder) error {
	step := func(frame *gocv.Mat, ev session.Event) bool {
		hand := a.detect(frame)
		p := rec.Step(ev, hand)
		a.renderer.RenderCollect(frame, hand, p)
		return rec.Done()
	}
	stop := func() {
		rec.Step(session.EventQuit, nil)
	}

	if err := a.run(ctx, step, stop); err != nil {
		return err
	}
	return rec.Err()
}
