// Package trainer hands exported datasets to external training programs.
//
// A trainer is an executable with a trainer.json manifest. It receives a
// Request as JSON on stdin and answers with a Response as JSON on stdout.
package trainer

import "encoding/json"

// ManifestFile is the manifest name looked up in each trainer directory.
const ManifestFile = "trainer.json"

// Manifest describes a trainer's metadata.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Kind is the classifier backend the trainer produces (onnx, centroid).
	Kind string `json:"kind"`
}

// Request is sent to a trainer on stdin.
type Request struct {
	Signs          []string        `json:"signs"`
	FeatureDim     int             `json:"feature_dim"`
	TrainPath      string          `json:"train_path"`
	ValidationPath string          `json:"validation_path"`
	OutputDir      string          `json:"output_dir"`
	Params         json.RawMessage `json:"params,omitempty"`
}

// Response is read from a trainer's stdout.
type Response struct {
	Success      bool               `json:"success"`
	Error        string             `json:"error,omitempty"`
	Kind         string             `json:"kind,omitempty"`
	ModelPath    string             `json:"model_path,omitempty"`
	MetadataPath string             `json:"metadata_path,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Trainer represents a discovered trainer with its manifest and location.
type Trainer struct {
	Manifest   Manifest
	Path       string
	Executable string
}
