package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// DefaultTemperature scales distances before the softmax. Feature vectors live
// in [-1, 1]^42, so distances between distinct signs are on the order of 1.
const DefaultTemperature = 0.1

// CentroidModel is a nearest-centroid classifier. Each sign is represented by
// the mean of its training vectors; probabilities are a softmax over negative
// Euclidean distance. Signs without training data get probability 0.
type CentroidModel struct {
	Kind        string      `json:"kind"`
	Signs       []string    `json:"signs"`
	Centroids   [][]float64 `json:"centroids"`
	Temperature float64     `json:"temperature"`
}

// FitCentroids averages the samples of each sign.
func FitCentroids(signs []string, samples []dataset.Sample, temperature float64) (*CentroidModel, error) {
	if len(signs) == 0 {
		return nil, vocab.ErrEmpty
	}
	if len(samples) == 0 {
		return nil, dataset.ErrNoSamples
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	sums := make([][]float64, len(signs))
	counts := make([]int, len(signs))
	for i, s := range samples {
		if s.Label < 0 || s.Label >= len(signs) {
			return nil, fmt.Errorf("sample %d: label %d outside %d signs", i, s.Label, len(signs))
		}
		if len(s.Features) != feature.Dim {
			return nil, fmt.Errorf("sample %d: %d features, expected %d", i, len(s.Features), feature.Dim)
		}
		if sums[s.Label] == nil {
			sums[s.Label] = make([]float64, feature.Dim)
		}
		for j, f := range s.Features {
			sums[s.Label][j] += f
		}
		counts[s.Label]++
	}

	for k, sum := range sums {
		if sum == nil {
			continue
		}
		n := float64(counts[k])
		for j := range sum {
			sum[j] /= n
		}
	}

	return &CentroidModel{
		Kind:        KindCentroid,
		Signs:       append([]string(nil), signs...),
		Centroids:   sums,
		Temperature: temperature,
	}, nil
}

// Predict returns one probability per sign.
func (m *CentroidModel) Predict(v feature.Vector) ([]float64, error) {
	if len(v) != feature.Dim {
		return nil, fmt.Errorf("input has %d features, expected %d", len(v), feature.Dim)
	}

	logits := make([]float64, len(m.Centroids))
	best := math.Inf(-1)
	for k, c := range m.Centroids {
		if c == nil {
			logits[k] = math.Inf(-1)
			continue
		}
		var d float64
		for j, f := range v {
			diff := f - c[j]
			d += diff * diff
		}
		logits[k] = -math.Sqrt(d) / m.Temperature
		if logits[k] > best {
			best = logits[k]
		}
	}
	if math.IsInf(best, -1) {
		return nil, fmt.Errorf("model has no trained signs")
	}

	probs := make([]float64, len(logits))
	var total float64
	for k, l := range logits {
		if math.IsInf(l, -1) {
			continue
		}
		probs[k] = math.Exp(l - best)
		total += probs[k]
	}
	for k := range probs {
		probs[k] /= total
	}
	return probs, nil
}

// Close is a no-op.
func (m *CentroidModel) Close() error {
	return nil
}

// Validate checks the model against the vocabulary.
func (m *CentroidModel) Validate(v *vocab.Vocabulary) error {
	if !v.Equal(m.Signs) {
		return fmt.Errorf("%w: model signs %v do not match vocabulary %v", ErrModelLoad, m.Signs, v.Names())
	}
	if len(m.Centroids) != v.Len() {
		return fmt.Errorf("%w: %d centroids for %d signs", ErrModelLoad, len(m.Centroids), v.Len())
	}
	for k, c := range m.Centroids {
		if c != nil && len(c) != feature.Dim {
			return fmt.Errorf("%w: centroid %d has %d features, expected %d", ErrModelLoad, k, len(c), feature.Dim)
		}
	}
	if m.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be positive", ErrModelLoad)
	}
	return nil
}

// Metadata describes the model in the same form as an ONNX export.
func (m *CentroidModel) Metadata() *Metadata {
	return &Metadata{
		Kind:        KindCentroid,
		InputShape:  []int64{1, feature.Dim},
		OutputShape: []int64{1, int64(len(m.Signs))},
		Classes:     append([]string(nil), m.Signs...),
	}
}

// Save writes the model as JSON.
func (m *CentroidModel) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// LoadCentroidModel reads a model written by Save.
func LoadCentroidModel(path string) (*CentroidModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read model: %v", ErrModelLoad, err)
	}

	var m CentroidModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse model: %v", ErrModelLoad, err)
	}
	if m.Kind != KindCentroid {
		return nil, fmt.Errorf("%w: %s is a %q model, expected %q", ErrModelLoad, path, m.Kind, KindCentroid)
	}
	return &m, nil
}
