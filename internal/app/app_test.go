package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/capture"
	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/presenter"
	"github.com/ayusman/handsign/internal/session"
	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// scriptedEvents replays one event per Poll, then EventNone.
type scriptedEvents struct {
	mu     sync.Mutex
	events []session.Event
}

func (s *scriptedEvents) Poll() session.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return session.EventNone
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev
}

type recordingRenderer struct {
	progress  []session.Progress
	decisions []*presenter.Decision
}

func (r *recordingRenderer) RenderCollect(_ *gocv.Mat, _ *detector.HandLandmarks, p session.Progress) {
	r.progress = append(r.progress, p)
}

func (r *recordingRenderer) RenderDecision(_ *gocv.Mat, _ *detector.HandLandmarks, d *presenter.Decision) {
	r.decisions = append(r.decisions, d)
}

type countingSink struct{ n int }

func (c *countingSink) Publish(*gocv.Mat) { c.n++ }

func blankFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range frames {
			m.Close()
		}
	})
	return frames
}

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New([]string{"HELLO", "YES"})
	require.NoError(t, err)
	return v
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func handPtr(h detector.HandLandmarks) *detector.HandLandmarks { return &h }

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{Detector: detector.NewMockDetector()})
	assert.Error(t, err)

	_, err = New(Config{Camera: capture.NewMockCamera(nil, false)})
	assert.Error(t, err)

	a, err := New(Config{Camera: capture.NewMockCamera(nil, false), Detector: detector.NewMockDetector()})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxReadErrors, a.maxReadErrors)
}

func TestCollect_FullSession(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 1), true)
	det := detector.NewMockDetector()
	det.SetHand(handPtr(detector.ThumbsUpLandmarks()))

	// Start on the first frame of each sign; three samples each.
	events := &scriptedEvents{events: []session.Event{
		session.EventStart, session.EventNone, session.EventNone,
		session.EventStart,
	}}
	renderer := &recordingRenderer{}
	sink := &countingSink{}

	var committed []int
	rec, err := session.NewRecorder(session.Config{
		Vocabulary:  v,
		TargetCount: 3,
		OnCommit: func(label int, samples []dataset.Sample, complete bool) error {
			assert.True(t, complete)
			committed = append(committed, label)
			return nil
		},
	})
	require.NoError(t, err)

	a, err := New(Config{Camera: cam, Detector: det, Events: events, Renderer: renderer, Frames: sink})
	require.NoError(t, err)

	require.NoError(t, a.Collect(context.Background(), rec))

	assert.True(t, rec.Done())
	assert.False(t, rec.Abandoned())
	assert.Equal(t, []int{0, 1}, committed)
	assert.Len(t, rec.Samples(), 6)
	assert.Equal(t, 6, cam.Reads())
	assert.Equal(t, 6, sink.n)
	assert.Len(t, renderer.progress, 6)
	assert.False(t, cam.IsOpen(), "camera should be closed after the loop")
}

func TestCollect_EndOfStreamKeepsPartialSegment(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 4), false)
	det := detector.NewMockDetector()
	det.SetHand(handPtr(detector.OpenPalmLandmarks()))

	var partial []dataset.Sample
	rec, err := session.NewRecorder(session.Config{
		Vocabulary:  v,
		TargetCount: 10,
		OnCommit: func(label int, samples []dataset.Sample, complete bool) error {
			assert.False(t, complete)
			partial = samples
			return nil
		},
	})
	require.NoError(t, err)

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Events:   &scriptedEvents{events: []session.Event{session.EventStart}},
		Renderer: &recordingRenderer{},
	})
	require.NoError(t, err)

	require.NoError(t, a.Collect(context.Background(), rec))
	assert.True(t, rec.Abandoned())
	assert.Len(t, partial, 4)
}

func TestCollect_DetectorErrorsSkipFrames(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 3), false)
	det := detector.NewMockDetector()
	det.SetError(errors.New("model crashed"))

	rec, err := session.NewRecorder(session.Config{Vocabulary: v, TargetCount: 2})
	require.NoError(t, err)

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Events:   &scriptedEvents{events: []session.Event{session.EventStart}},
		Renderer: &recordingRenderer{},
	})
	require.NoError(t, err)

	require.NoError(t, a.Collect(context.Background(), rec))
	assert.Equal(t, 3, det.Calls())
	assert.Empty(t, rec.Samples())
}

func TestCollect_QuitEvent(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 1), true)
	det := detector.NewMockDetector()
	det.SetHand(handPtr(detector.ThumbsUpLandmarks()))

	rec, err := session.NewRecorder(session.Config{Vocabulary: v, TargetCount: 100})
	require.NoError(t, err)

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Events: &scriptedEvents{events: []session.Event{
			session.EventStart, session.EventNone, session.EventQuit,
		}},
		Renderer: &recordingRenderer{},
	})
	require.NoError(t, err)

	require.NoError(t, a.Collect(context.Background(), rec))
	assert.True(t, rec.Abandoned())
	assert.Len(t, rec.Samples(), 2)
	assert.Equal(t, 3, cam.Reads())
}

func TestCollect_ContextCancelled(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 1), true)

	rec, err := session.NewRecorder(session.Config{Vocabulary: v, TargetCount: 5})
	require.NoError(t, err)

	a, err := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Renderer: &recordingRenderer{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.Collect(ctx, rec))
	assert.True(t, rec.Done())
	assert.Equal(t, 0, cam.Reads())
}

func TestCollect_CommitErrorSurfaces(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 1), true)
	det := detector.NewMockDetector()
	det.SetHand(handPtr(detector.ThumbsUpLandmarks()))

	rec, err := session.NewRecorder(session.Config{
		Vocabulary:  v,
		TargetCount: 1,
		OnCommit: func(int, []dataset.Sample, bool) error {
			return errors.New("disk full")
		},
	})
	require.NoError(t, err)

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Events:   &scriptedEvents{events: []session.Event{session.EventStart, session.EventStart}},
		Renderer: &recordingRenderer{},
	})
	require.NoError(t, err)

	err = a.Collect(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

// failingCamera fails every read.
type failingCamera struct {
	capture.MockCamera
	reads int
}

func (c *failingCamera) ReadFrame() (*gocv.Mat, error) {
	c.reads++
	return nil, errors.New("usb glitch")
}

func TestRun_TooManyReadErrors(t *testing.T) {
	v := testVocab(t)
	cam := &failingCamera{}

	rec, err := session.NewRecorder(session.Config{Vocabulary: v, TargetCount: 5})
	require.NoError(t, err)

	a, err := New(Config{Camera: cam, Detector: detector.NewMockDetector(), MaxReadErrors: 3})
	require.NoError(t, err)

	err = a.Collect(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usb glitch")
	assert.Equal(t, 3, cam.reads)
}

func TestRecognize(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 3), false)
	det := detector.NewMockDetector()
	det.Queue(handPtr(detector.ThumbsUpLandmarks()), nil, handPtr(detector.OpenPalmLandmarks()))

	engine, err := inference.NewEngine(inference.Config{
		Detector:   det,
		Vocabulary: v,
		Classifier: classifier.Func(func(feature.Vector) ([]float64, error) {
			return []float64{0.9, 0.1}, nil
		}),
	})
	require.NoError(t, err)

	renderer := &recordingRenderer{}
	a, err := New(Config{Camera: cam, Detector: det, Renderer: renderer})
	require.NoError(t, err)

	var got []*presenter.Decision
	require.NoError(t, a.Recognize(context.Background(), engine, func(d *presenter.Decision) {
		got = append(got, d)
	}))

	require.Len(t, got, 3)
	require.NotNil(t, got[0])
	assert.Equal(t, "HELLO", got[0].Primary.Sign)
	assert.Equal(t, presenter.TierConfident, got[0].Tier)
	assert.Nil(t, got[1], "frame without a hand has no decision")
	assert.NotNil(t, got[2])
	assert.Len(t, renderer.decisions, 3)
}

func TestRecognize_QuitStopsLoop(t *testing.T) {
	v := testVocab(t)
	cam := capture.NewMockCamera(blankFrames(t, 1), true)
	det := detector.NewMockDetector()

	engine, err := inference.NewEngine(inference.Config{
		Detector:   det,
		Vocabulary: v,
		Classifier: classifier.Func(func(feature.Vector) ([]float64, error) {
			return []float64{0.5, 0.5}, nil
		}),
	})
	require.NoError(t, err)

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Events:   &scriptedEvents{events: []session.Event{session.EventNone, session.EventQuit}},
		Renderer: &recordingRenderer{},
	})
	require.NoError(t, err)

	require.NoError(t, a.Recognize(context.Background(), engine, nil))
	assert.Equal(t, 2, cam.Reads())
	assert.Equal(t, 1, det.Calls())
}

func TestStoreSink(t *testing.T) {
	v := testVocab(t)
	s, err := store.New(filepath.Join(t.TempDir(), "handsign.db"))
	require.NoError(t, err)
	defer s.Close()

	sink, err := NewStoreSink(s, v, 2, discardLogger())
	require.NoError(t, err)
	require.NotEmpty(t, sink.SessionID())

	rec, err := session.NewRecorder(session.Config{Vocabulary: v, TargetCount: 2, OnCommit: sink.Commit})
	require.NoError(t, err)

	hand := handPtr(detector.ThumbsUpLandmarks())
	rec.Step(session.EventStart, hand)
	rec.Step(session.EventNone, hand)
	rec.Step(session.EventStart, hand)
	rec.Step(session.EventQuit, nil)
	require.NoError(t, rec.Err())
	require.NoError(t, sink.Finish(rec))

	counts, err := s.Samples().CountBySign(v.Len())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, counts)

	sess, err := s.Sessions().GetByID(sink.SessionID())
	require.NoError(t, err)
	assert.Equal(t, store.SessionAbandoned, sess.Status)
	assert.NotNil(t, sess.FinishedAt)
}

func TestStoreSink_VocabularyMismatch(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "handsign.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = NewStoreSink(s, testVocab(t), 2, discardLogger())
	require.NoError(t, err)

	other, err := vocab.New([]string{"NO", "THANKS"})
	require.NoError(t, err)
	_, err = NewStoreSink(s, other, 2, discardLogger())
	assert.ErrorIs(t, err, store.ErrVocabularyMismatch)
}
