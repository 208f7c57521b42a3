// Package classifier provides the predict contract consumed by inference and
// the backends that satisfy it.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// Backend kinds accepted by Open.
const (
	KindONNX     = "onnx"
	KindCentroid = "centroid"
)

// ErrModelLoad is returned when a model or its metadata cannot be loaded or
// does not fit the vocabulary.
var ErrModelLoad = errors.New("model load failed")

// Classifier maps one feature vector to a probability distribution over the
// vocabulary. Index k of the result is the probability of sign k.
type Classifier interface {
	Predict(v feature.Vector) ([]float64, error)
	Close() error
}

// Func adapts a plain function to the Classifier interface.
type Func func(v feature.Vector) ([]float64, error)

// Predict calls f(v).
func (f Func) Predict(v feature.Vector) ([]float64, error) {
	return f(v)
}

// Close is a no-op.
func (f Func) Close() error {
	return nil
}

// Metadata describes a persisted model.
type Metadata struct {
	Kind        string   `json:"kind,omitempty"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
}

// LoadMetadata reads model metadata from a JSON file.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata: %v", ErrModelLoad, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse metadata: %v", ErrModelLoad, err)
	}
	return &m, nil
}

// Save writes the metadata as indented JSON.
func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Validate checks that the model takes one feature vector and emits one
// probability per sign, in vocabulary order.
func (m *Metadata) Validate(v *vocab.Vocabulary) error {
	if !v.Equal(m.Classes) {
		return fmt.Errorf("%w: model classes %v do not match vocabulary %v", ErrModelLoad, m.Classes, v.Names())
	}
	if got := lastDim(m.InputShape); got != feature.Dim {
		return fmt.Errorf("%w: model input width %d, expected %d", ErrModelLoad, got, feature.Dim)
	}
	if got := lastDim(m.OutputShape); got != int64(v.Len()) {
		return fmt.Errorf("%w: model output width %d, expected %d", ErrModelLoad, got, v.Len())
	}
	return nil
}

func lastDim(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	return shape[len(shape)-1]
}

// Options selects and locates a persisted model.
type Options struct {
	Kind         string
	ModelPath    string
	MetadataPath string

	// SharedLibraryPath points at the onnxruntime shared library. Empty uses
	// the platform default.
	SharedLibraryPath string
}

// Open loads the model described by opts and checks it against the
// vocabulary. Failures wrap ErrModelLoad.
func Open(opts Options, v *vocab.Vocabulary) (Classifier, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: vocabulary is required", ErrModelLoad)
	}

	switch opts.Kind {
	case KindONNX, "":
		return NewONNX(opts, v)
	case KindCentroid:
		m, err := LoadCentroidModel(opts.ModelPath)
		if err != nil {
			return nil, err
		}
		if err := m.Validate(v); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrModelLoad, opts.Kind)
	}
}

// Describe returns the metadata of a loaded model, or nil when c does not
// carry any.
func Describe(c Classifier) *Metadata {
	switch m := c.(type) {
	case *ONNX:
		meta := m.Metadata
		return &meta
	case *CentroidModel:
		return m.Metadata()
	default:
		return nil
	}
}
