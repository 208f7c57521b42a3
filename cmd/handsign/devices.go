package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/handsign/internal/capture"
	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/vocab"
)

// openDevices opens the camera and starts the landmark detector.
func (rt *runtime) openDevices() (capture.Camera, detector.Detector, error) {
	cam := capture.NewCamera(rt.cfg.CaptureConfig())
	if err := cam.Open(); err != nil {
		return nil, nil, fmt.Errorf("open camera: %w", err)
	}

	det, err := detector.NewMediaPipeDetector(rt.cfg.DetectorConfig(), rt.log)
	if err != nil {
		cam.Close()
		return nil, nil, fmt.Errorf("start detector: %w", err)
	}
	return cam, det, nil
}

// loadModel opens the configured classifier and its metadata.
func (rt *runtime) loadModel(v *vocab.Vocabulary) (classifier.Classifier, *classifier.Metadata, error) {
	c, err := classifier.Open(rt.cfg.ClassifierOptions(), v)
	if err != nil {
		return nil, nil, err
	}
	meta := classifier.Describe(c)
	rt.log.WithField("kind", rt.cfg.Model.Kind).WithField("classes", v.Len()).Info("model loaded")
	return c, meta, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handsign/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".handsign", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
