package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the landmarks of a single hand.
	// Returns nil if no hand clears the confidence gate.
	Detect(frame *gocv.Mat) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Script overrides the location of the MediaPipe service script.
	Script string

	// Python overrides the interpreter used to run the service.
	Python string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}

// pickHand returns the first hand at or above minConfidence, or nil.
func pickHand(hands []HandLandmarks, minConfidence float64) *HandLandmarks {
	for i := range hands {
		if hands[i].Score >= minConfidence {
			h := hands[i]
			return &h
		}
	}
	return nil
}
