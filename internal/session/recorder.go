// Package session drives interactive data collection: one segment per sign,
// in vocabulary order, gated by explicit start, redo and quit events.
package session

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// DefaultTargetCount is the number of samples collected per sign.
const DefaultTargetCount = 150

// Event is a discrete user signal consumed once per frame.
type Event int

const (
	// EventNone means no user input this frame.
	EventNone Event = iota
	// EventStart begins collecting the current sign.
	EventStart
	// EventRedo discards the current sign's samples and waits for start again.
	EventRedo
	// EventQuit ends the session, keeping what was collected.
	EventQuit
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventStart:
		return "start"
	case EventRedo:
		return "redo"
	case EventQuit:
		return "quit"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// State is the recorder's position in the collection state machine.
type State int

const (
	// StateAwaitingStart drops frames until the user starts the segment.
	StateAwaitingStart State = iota
	// StateCollecting records one sample per frame with a usable hand.
	StateCollecting
	// StateDone means every sign was collected or the user quit.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateCollecting:
		return "collecting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is a snapshot of the current segment for display.
type Progress struct {
	State     State
	Sign      string
	SignIndex int
	Collected int
	Target    int
	Committed int // samples committed across all signs
}

// CommitFunc receives a sign's samples when its segment is finalized.
// complete is false when the segment was abandoned by a quit.
type CommitFunc func(label int, samples []dataset.Sample, complete bool) error

// Config holds recorder options.
type Config struct {
	Vocabulary  *vocab.Vocabulary
	TargetCount int
	Extractor   *feature.Extractor
	Logger      logrus.FieldLogger
	OnCommit    CommitFunc
}

// Recorder is the collection state machine. It is not safe for concurrent
// use; the caller feeds it one frame at a time.
type Recorder struct {
	vocab     *vocab.Vocabulary
	target    int
	extractor *feature.Extractor
	log       logrus.FieldLogger
	onCommit  CommitFunc

	state     State
	sign      int
	buffer    []dataset.Sample
	committed []dataset.Sample
	commitErr error
	abandoned bool
}

// NewRecorder creates a Recorder positioned at the first sign.
func NewRecorder(config Config) (*Recorder, error) {
	if config.Vocabulary == nil {
		return nil, fmt.Errorf("session: vocabulary is required")
	}
	if config.TargetCount <= 0 {
		return nil, fmt.Errorf("session: target count must be positive, got %d", config.TargetCount)
	}
	if config.Extractor == nil {
		config.Extractor = feature.NewExtractor()
	}
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}

	r := &Recorder{
		vocab:     config.Vocabulary,
		target:    config.TargetCount,
		extractor: config.Extractor,
		log:       config.Logger.WithField("component", "session"),
		onCommit:  config.OnCommit,
		state:     StateAwaitingStart,
		buffer:    make([]dataset.Sample, 0, config.TargetCount),
	}
	r.announce()
	return r, nil
}

// Step applies one frame: first the event, then the hand observation.
// hand may be nil when no hand was detected.
func (r *Recorder) Step(ev Event, hand *detector.HandLandmarks) Progress {
	if r.state == StateDone {
		return r.Progress()
	}

	switch ev {
	case EventQuit:
		r.quit()
		return r.Progress()
	case EventRedo:
		r.redo()
	case EventStart:
		if r.state == StateAwaitingStart {
			r.state = StateCollecting
			r.log.WithField("sign", r.signName()).Info("collecting")
		}
	}

	if r.state != StateCollecting {
		return r.Progress()
	}

	// Frames without a usable hand don't count toward the quota.
	v, ok := r.extractor.Extract(hand)
	if !ok {
		return r.Progress()
	}

	r.buffer = append(r.buffer, dataset.Sample{Features: v, Label: r.sign})
	if len(r.buffer) == r.target {
		r.commit(true)
		r.advance()
	}
	return r.Progress()
}

// Progress returns the current snapshot.
func (r *Recorder) Progress() Progress {
	p := Progress{
		State:     r.state,
		SignIndex: r.sign,
		Collected: len(r.buffer),
		Target:    r.target,
		Committed: len(r.committed),
	}
	p.Sign, _ = r.vocab.Name(r.sign)
	return p
}

// Done reports whether the session has ended.
func (r *Recorder) Done() bool {
	return r.state == StateDone
}

// Abandoned reports whether the session ended by quit rather than by
// collecting every sign.
func (r *Recorder) Abandoned() bool {
	return r.abandoned
}

// Samples returns every committed sample, in commit order.
func (r *Recorder) Samples() []dataset.Sample {
	return append([]dataset.Sample(nil), r.committed...)
}

// Err returns the first error reported by the commit hook.
func (r *Recorder) Err() error {
	return r.commitErr
}

func (r *Recorder) redo() {
	r.log.WithFields(logrus.Fields{
		"sign":      r.signName(),
		"discarded": len(r.buffer),
	}).Info("redo")
	r.buffer = r.buffer[:0]
	r.state = StateAwaitingStart
}

func (r *Recorder) quit() {
	if len(r.buffer) > 0 {
		r.commit(false)
	}
	r.state = StateDone
	r.abandoned = true
	r.log.WithField("samples", len(r.committed)).Info("session ended by user")
}

// commit moves the buffer into the committed set and notifies the hook.
func (r *Recorder) commit(complete bool) {
	samples := append([]dataset.Sample(nil), r.buffer...)
	r.committed = append(r.committed, samples...)
	r.buffer = r.buffer[:0]

	r.log.WithFields(logrus.Fields{
		"sign":     r.signName(),
		"samples":  len(samples),
		"complete": complete,
	}).Info("segment committed")

	if r.onCommit != nil {
		if err := r.onCommit(r.sign, samples, complete); err != nil && r.commitErr == nil {
			r.commitErr = fmt.Errorf("commit %s: %w", r.signName(), err)
		}
	}
}

func (r *Recorder) advance() {
	r.sign++
	if r.sign >= r.vocab.Len() {
		r.sign = r.vocab.Len() - 1
		r.state = StateDone
		r.log.WithField("samples", len(r.committed)).Info("all signs collected")
		return
	}
	r.state = StateAwaitingStart
	r.announce()
}

func (r *Recorder) announce() {
	r.log.WithFields(logrus.Fields{
		"sign":   r.signName(),
		"target": r.target,
	}).Info("waiting for start")
}

func (r *Recorder) signName() string {
	name, _ := r.vocab.Name(r.sign)
	return name
}
