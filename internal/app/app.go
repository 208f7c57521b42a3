// Package app runs the frame loops that tie capture, detection, collection
// and recognition together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/capture"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/presenter"
	"github.com/ayusman/handsign/internal/session"
	"github.com/ayusman/handsign/internal/ui"
)

// DefaultMaxReadErrors is how many consecutive failed camera reads end a loop.
const DefaultMaxReadErrors = 30

// EventSource reports the user's input for the current frame.
type EventSource interface {
	Poll() session.Event
}

// Renderer draws loop state onto a frame and presents it.
type Renderer interface {
	RenderCollect(frame *gocv.Mat, hand *detector.HandLandmarks, p session.Progress)
	RenderDecision(frame *gocv.Mat, hand *detector.HandLandmarks, d *presenter.Decision)
}

// FrameSink receives every rendered frame. It must not keep the Mat.
type FrameSink interface {
	Publish(frame *gocv.Mat)
}

// Config holds the loop collaborators.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector

	// Events defaults to no input.
	Events EventSource

	// Renderer defaults to drawing the overlay without showing it.
	Renderer Renderer

	// Frames optionally receives rendered frames, e.g. for streaming.
	Frames FrameSink

	Logger        logrus.FieldLogger
	MaxReadErrors int
}

// App runs collection and recognition loops. Each frame is fully processed
// before the next one is read.
type App struct {
	camera        capture.Camera
	detector      detector.Detector
	events        EventSource
	renderer      Renderer
	frames        FrameSink
	log           logrus.FieldLogger
	maxReadErrors int
}

// New creates a new App.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Events == nil {
		config.Events = ui.NoEvents{}
	}
	if config.Renderer == nil {
		config.Renderer = ui.Overlay{}
	}
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}
	if config.MaxReadErrors <= 0 {
		config.MaxReadErrors = DefaultMaxReadErrors
	}

	return &App{
		camera:        config.Camera,
		detector:      config.Detector,
		events:        config.Events,
		renderer:      config.Renderer,
		frames:        config.Frames,
		log:           config.Logger.WithField("component", "app"),
		maxReadErrors: config.MaxReadErrors,
	}, nil
}

// stepFunc processes one frame and reports whether the loop is finished.
type stepFunc func(frame *gocv.Mat, ev session.Event) bool

// run reads frames until step reports done, the user quits, the source
// ends, or ctx is cancelled. stop runs on every exit path except step
// finishing on its own.
func (a *App) run(ctx context.Context, step stepFunc, stop func()) error {
	if !a.camera.IsOpen() {
		if err := a.camera.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		defer a.camera.Close()
	}

	readErrors := 0
	for {
		select {
		case <-ctx.Done():
			a.log.Info("cancelled")
			stop()
			return nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			a.log.Info("end of stream")
			stop()
			return nil
		}
		if err != nil {
			readErrors++
			if readErrors >= a.maxReadErrors {
				stop()
				return fmt.Errorf("read frame: %w", err)
			}
			a.log.WithError(err).Warn("failed to read frame")
			continue
		}
		readErrors = 0

		done := step(frame, a.events.Poll())
		if a.frames != nil {
			a.frames.Publish(frame)
		}
		frame.Close()

		if done {
			return nil
		}
	}
}

// detect runs the detector and degrades failures to "no hand".
func (a *App) detect(frame *gocv.Mat) *detector.HandLandmarks {
	hand, err := a.detector.Detect(frame)
	if err != nil {
		a.log.WithError(err).Warn("hand detection failed")
		return nil
	}
	return hand
}
