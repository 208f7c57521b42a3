package app

import (
	"context"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/presenter"
	"github.com/ayusman/handsign/internal/session"
)

// DecisionFunc receives the decision for every frame; nil means no hand.
type DecisionFunc func(d *presenter.Decision)

// Recognize classifies every frame until the user quits, the source ends, or
// ctx is cancelled.
func (a *App) Recognize(ctx context.Context, engine *inference.Engine, onDecision DecisionFunc) error {
	step := func(frame *gocv.Mat, ev session.Event) bool {
		if ev == session.EventQuit {
			return true
		}

		obs, err := engine.Observe(frame)
		if err != nil {
			a.log.WithError(err).Warn("inference failed")
		}

		var decision *presenter.Decision
		if d, ok := presenter.Present(obs.Prediction); ok {
			decision = &d
			a.log.WithFields(logrus.Fields{
				"sign":        d.Primary.Sign,
				"probability": d.Primary.Probability,
				"tier":        d.Tier,
			}).Debug("decision")
		}

		a.renderer.RenderDecision(frame, obs.Hand, decision)
		if onDecision != nil {
			onDecision(decision)
		}
		return false
	}

	return a.run(ctx, step, func() {})
}
