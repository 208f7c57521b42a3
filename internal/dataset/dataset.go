// Package dataset aggregates labeled feature vectors into train and
// validation sets for an external classifier.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// Default split parameters.
const (
	DefaultValidationFraction = 0.2
	DefaultSeed               = 42
)

var (
	// ErrNoSamples is returned when Build is called with no samples.
	ErrNoSamples = errors.New("no samples")

	// ErrInsufficientClassData is returned when a sign has no samples and the
	// split cannot be stratified over the whole vocabulary.
	ErrInsufficientClassData = errors.New("insufficient class data")
)

// Sample is one labeled feature vector.
type Sample struct {
	Features feature.Vector `json:"features"`
	Label    int            `json:"label"`
}

// Set is a partition of the dataset. Rows of Features, Labels and OneHot are
// index-aligned.
type Set struct {
	Signs    []string    `json:"signs"`
	Features [][]float64 `json:"features"`
	Labels   []int       `json:"labels"`
	OneHot   [][]float64 `json:"one_hot"`
}

// Len returns the number of rows in the set.
func (s *Set) Len() int {
	return len(s.Labels)
}

// Config holds dataset builder options.
type Config struct {
	Vocabulary *vocab.Vocabulary

	// ValidationFraction is the share of samples held out for validation.
	ValidationFraction float64

	// Seed drives the shuffle so splits are reproducible.
	Seed int64

	// AllowMissingClasses lets signs without samples through. Labels stay
	// vocabulary-wide either way.
	AllowMissingClasses bool
}

// DefaultConfig returns a Config with an 80/20 split and a fixed seed.
func DefaultConfig(v *vocab.Vocabulary) Config {
	return Config{
		Vocabulary:         v,
		ValidationFraction: DefaultValidationFraction,
		Seed:               DefaultSeed,
	}
}

// Builder splits samples into stratified train and validation sets.
type Builder struct {
	config Config
}

// NewBuilder creates a new Builder.
func NewBuilder(config Config) (*Builder, error) {
	if config.Vocabulary == nil {
		return nil, fmt.Errorf("dataset: vocabulary is required")
	}
	if config.ValidationFraction <= 0 || config.ValidationFraction >= 1 {
		return nil, fmt.Errorf("dataset: validation fraction %v must be in (0, 1)", config.ValidationFraction)
	}
	return &Builder{config: config}, nil
}

// Build validates samples and splits them so that each partition keeps the
// class proportions of the full set as closely as integer sizes allow.
func (b *Builder) Build(samples []Sample) (train, validation *Set, err error) {
	if len(samples) == 0 {
		return nil, nil, ErrNoSamples
	}

	width := b.config.Vocabulary.Len()
	for i, s := range samples {
		if s.Label < 0 || s.Label >= width {
			return nil, nil, fmt.Errorf("sample %d: label %d outside vocabulary of %d signs", i, s.Label, width)
		}
		if len(s.Features) != feature.Dim {
			return nil, nil, fmt.Errorf("sample %d: %d features, expected %d", i, len(s.Features), feature.Dim)
		}
	}

	counts := Counts(samples, width)
	if !b.config.AllowMissingClasses {
		for label, c := range counts {
			if c == 0 {
				name, _ := b.config.Vocabulary.Name(label)
				return nil, nil, fmt.Errorf("%w: sign %q has no samples", ErrInsufficientClassData, name)
			}
		}
	}

	n := len(samples)
	nVal := int(math.Ceil(b.config.ValidationFraction * float64(n)))
	if nVal >= n {
		return nil, nil, fmt.Errorf("dataset: %d samples cannot be split with validation fraction %v", n, b.config.ValidationFraction)
	}

	alloc := allocate(counts, nVal)

	byClass := make([][]int, width)
	for i, s := range samples {
		byClass[s.Label] = append(byClass[s.Label], i)
	}

	rng := rand.New(rand.NewSource(b.config.Seed))

	trainIdx := make([]int, 0, n-nVal)
	valIdx := make([]int, 0, nVal)
	for label, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		valIdx = append(valIdx, idx[:alloc[label]]...)
		trainIdx = append(trainIdx, idx[alloc[label]:]...)
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(valIdx), func(i, j int) { valIdx[i], valIdx[j] = valIdx[j], valIdx[i] })

	signs := b.config.Vocabulary.Names()
	return b.gather(samples, trainIdx, signs), b.gather(samples, valIdx, signs), nil
}

func (b *Builder) gather(samples []Sample, idx []int, signs []string) *Set {
	width := len(signs)
	set := &Set{
		Signs:    signs,
		Features: make([][]float64, 0, len(idx)),
		Labels:   make([]int, 0, len(idx)),
		OneHot:   make([][]float64, 0, len(idx)),
	}
	for _, i := range idx {
		s := samples[i]
		set.Features = append(set.Features, append([]float64(nil), s.Features...))
		set.Labels = append(set.Labels, s.Label)
		set.OneHot = append(set.OneHot, OneHot(s.Label, width))
	}
	return set
}

// allocate distributes nVal validation slots across classes in proportion to
// counts. Leftover slots go to the largest fractional shares, lower label first.
func allocate(counts []int, nVal int) []int {
	var n int
	for _, c := range counts {
		n += c
	}

	type share struct {
		label int
		frac  float64
	}

	alloc := make([]int, len(counts))
	shares := make([]share, 0, len(counts))
	assigned := 0
	for label, c := range counts {
		exact := float64(c) * float64(nVal) / float64(n)
		whole := int(math.Floor(exact))
		alloc[label] = whole
		assigned += whole
		shares = append(shares, share{label: label, frac: exact - float64(whole)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].frac > shares[j].frac
	})

	for i := 0; assigned < nVal; i++ {
		label := shares[i%len(shares)].label
		if alloc[label] < counts[label] {
			alloc[label]++
			assigned++
		}
	}
	return alloc
}

// OneHot encodes label as a vector of the given width.
func OneHot(label, width int) []float64 {
	v := make([]float64, width)
	if label >= 0 && label < width {
		v[label] = 1
	}
	return v
}

// Counts returns the number of samples per label for a vocabulary of the
// given width. Out-of-range labels are ignored.
func Counts(samples []Sample, width int) []int {
	counts := make([]int, width)
	for _, s := range samples {
		if s.Label >= 0 && s.Label < width {
			counts[s.Label]++
		}
	}
	return counts
}
