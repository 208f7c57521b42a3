// Package inference turns a single frame into a ranked sign prediction.
package inference

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// TopN is the number of candidates kept per prediction.
const TopN = 2

// Candidate is one ranked sign.
type Candidate struct {
	Sign        string  `json:"sign"`
	Index       int     `json:"index"`
	Probability float64 `json:"probability"`
}

// Prediction is a list of candidates sorted by descending probability.
// A nil Prediction means no usable hand was in the frame.
type Prediction []Candidate

// Observation pairs the detected hand with its prediction so callers can
// draw the landmarks they were classified from.
type Observation struct {
	Hand       *detector.HandLandmarks
	Prediction Prediction
}

// Config holds engine dependencies.
type Config struct {
	Detector   detector.Detector
	Extractor  *feature.Extractor
	Classifier classifier.Classifier
	Vocabulary *vocab.Vocabulary
	Logger     logrus.FieldLogger
}

// Engine wraps a detector, the shared extractor and a classifier.
// It holds no per-frame state.
type Engine struct {
	detector   detector.Detector
	extractor  *feature.Extractor
	classifier classifier.Classifier
	vocab      *vocab.Vocabulary
	log        logrus.FieldLogger
}

// NewEngine creates an Engine. Detector may be nil when only Classify is used.
func NewEngine(config Config) (*Engine, error) {
	if config.Classifier == nil {
		return nil, fmt.Errorf("inference: classifier is required")
	}
	if config.Vocabulary == nil {
		return nil, fmt.Errorf("inference: vocabulary is required")
	}
	if config.Extractor == nil {
		config.Extractor = feature.NewExtractor()
	}
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}

	return &Engine{
		detector:   config.Detector,
		extractor:  config.Extractor,
		classifier: config.Classifier,
		vocab:      config.Vocabulary,
		log:        config.Logger.WithField("component", "inference"),
	}, nil
}

// Infer detects a hand in frame and classifies it.
func (e *Engine) Infer(frame *gocv.Mat) (Prediction, error) {
	obs, err := e.Observe(frame)
	if err != nil {
		return nil, err
	}
	return obs.Prediction, nil
}

// Observe is Infer that also returns the detected hand.
func (e *Engine) Observe(frame *gocv.Mat) (Observation, error) {
	if e.detector == nil {
		return Observation{}, fmt.Errorf("inference: no detector configured")
	}

	hand, err := e.detector.Detect(frame)
	if err != nil {
		return Observation{}, fmt.Errorf("detect: %w", err)
	}

	pred, err := e.Classify(hand)
	if err != nil {
		return Observation{Hand: hand}, err
	}
	return Observation{Hand: hand, Prediction: pred}, nil
}

// Classify runs the extractor and classifier on an already detected hand.
// It returns nil when hand is nil or degenerate.
func (e *Engine) Classify(hand *detector.HandLandmarks) (Prediction, error) {
	v, ok := e.extractor.Extract(hand)
	if !ok {
		return nil, nil
	}

	probs, err := e.classifier.Predict(v)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(probs) != e.vocab.Len() {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d signs", len(probs), e.vocab.Len())
	}

	top := TopK(probs, TopN)
	pred := make(Prediction, len(top))
	for i, k := range top {
		name, _ := e.vocab.Name(k)
		pred[i] = Candidate{Sign: name, Index: k, Probability: probs[k]}
	}

	e.log.WithFields(logrus.Fields{
		"sign":        pred[0].Sign,
		"probability": pred[0].Probability,
	}).Debug("classified")

	return pred, nil
}

// TopK returns the indices of the k largest probabilities in descending
// order. Equal probabilities keep the lower index first.
func TopK(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
