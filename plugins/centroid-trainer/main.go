// Package main is a reference trainer. It fits one centroid per sign on the
// exported training set and reports accuracy on both partitions.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/trainer"
)

// Output file names written into the request's output dir.
const (
	modelFile    = "model.json"
	metadataFile = "metadata.json"
)

// Params are the optional trainer settings.
type Params struct {
	Temperature float64 `json:"temperature"`
}

func main() {
	json.NewEncoder(os.Stdout).Encode(run(os.Stdin))
}

func run(r io.Reader) *trainer.Response {
	var req trainer.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure(fmt.Errorf("failed to decode request: %w", err))
	}

	resp, err := train(&req)
	if err != nil {
		return failure(err)
	}
	return resp
}

func train(req *trainer.Request) (*trainer.Response, error) {
	if req.FeatureDim != 0 && req.FeatureDim != feature.Dim {
		return nil, fmt.Errorf("feature dim %d not supported, expected %d", req.FeatureDim, feature.Dim)
	}

	var params Params
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}

	trainSet, err := dataset.LoadSet(req.TrainPath)
	if err != nil {
		return nil, err
	}

	model, err := classifier.FitCentroids(req.Signs, trainSet.Samples(), params.Temperature)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	metrics := map[string]float64{
		"train_samples":  float64(trainSet.Len()),
		"train_accuracy": accuracy(model, trainSet),
	}

	if req.ValidationPath != "" {
		valSet, err := dataset.LoadSet(req.ValidationPath)
		if err != nil {
			return nil, err
		}
		metrics["validation_samples"] = float64(valSet.Len())
		metrics["validation_accuracy"] = accuracy(model, valSet)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	modelPath := filepath.Join(req.OutputDir, modelFile)
	metadataPath := filepath.Join(req.OutputDir, metadataFile)

	if err := model.Save(modelPath); err != nil {
		return nil, err
	}
	if err := model.Metadata().Save(metadataPath); err != nil {
		return nil, err
	}

	return &trainer.Response{
		Success:      true,
		Kind:         classifier.KindCentroid,
		ModelPath:    modelPath,
		MetadataPath: metadataPath,
		Metrics:      metrics,
	}, nil
}

// accuracy is the share of rows whose top prediction matches the label.
func accuracy(c classifier.Classifier, set *dataset.Set) float64 {
	if set.Len() == 0 {
		return 0
	}

	correct := 0
	for i, row := range set.Features {
		probs, err := c.Predict(row)
		if err != nil {
			continue
		}
		if top := inference.TopK(probs, 1); len(top) == 1 && top[0] == set.Labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(set.Len())
}

func failure(err error) *trainer.Response {
	return &trainer.Response{Success: false, Error: err.Error()}
}
