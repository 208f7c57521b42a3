package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptTrainer writes a shell script into a temp dir and returns it as a
// Trainer.
func scriptTrainer(t *testing.T, name, script string) *Trainer {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Trainer{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Kind:       "centroid",
		},
		Path:       dir,
		Executable: path,
	}
}

func testRequest() *Request {
	return &Request{
		Signs:          []string{"HELLO", "YES"},
		FeatureDim:     42,
		TrainPath:      "/tmp/train.json",
		ValidationPath: "/tmp/validation.json",
		OutputDir:      "/tmp/model",
	}
}

func TestExecutor_Execute(t *testing.T) {
	tr := scriptTrainer(t, "ok", `cat <<'EOF'
{"success":true,"kind":"onnx","model_path":"model.onnx","metadata_path":"metadata.json","metrics":{"val_accuracy":0.95}}
EOF
`)

	resp, err := NewExecutor(5000).Execute(context.Background(), tr, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success=true, got false")
	}
	if resp.Kind != "onnx" || resp.ModelPath != "model.onnx" || resp.MetadataPath != "metadata.json" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Metrics["val_accuracy"] != 0.95 {
		t.Errorf("val_accuracy = %v, want 0.95", resp.Metrics["val_accuracy"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// The script saves its stdin next to itself.
	tr := scriptTrainer(t, "echo", `cat > received.json
echo '{"success":true,"model_path":"m"}'
`)

	_, err := NewExecutor(5000).Execute(context.Background(), tr, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tr.Path, "received.json"))
	if err != nil {
		t.Fatalf("trainer did not run in its directory: %v", err)
	}

	var received Request
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("failed to unmarshal received request: %v", err)
	}
	if received.FeatureDim != 42 || received.TrainPath != "/tmp/train.json" {
		t.Errorf("unexpected request %+v", received)
	}
	if strings.Join(received.Signs, ",") != "HELLO,YES" {
		t.Errorf("signs = %v", received.Signs)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	tr := scriptTrainer(t, "slow", `sleep 10
echo '{"success":true}'
`)

	_, err := NewExecutor(100).Execute(context.Background(), tr, testRequest())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_Cancelled(t *testing.T) {
	tr := scriptTrainer(t, "slow", `sleep 10
echo '{"success":true}'
`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewExecutor(5000).Execute(ctx, tr, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"invalid json", "echo 'not valid json'\n"},
		{"non-zero exit", "echo 'Error: out of memory' >&2\nexit 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := scriptTrainer(t, "bad", tt.script)
			if _, err := NewExecutor(5000).Execute(context.Background(), tr, testRequest()); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestExecutor_Train(t *testing.T) {
	t.Run("error response", func(t *testing.T) {
		tr := scriptTrainer(t, "fail", "echo '{\"success\":false,\"error\":\"class YES has no samples\"}'\n")
		resp, err := NewExecutor(5000).Train(context.Background(), tr, testRequest())
		if !errors.Is(err, ErrTrainingFailed) {
			t.Fatalf("expected ErrTrainingFailed, got %v", err)
		}
		if resp == nil || resp.Error != "class YES has no samples" {
			t.Errorf("response should carry the trainer error, got %+v", resp)
		}
	})

	t.Run("missing model path", func(t *testing.T) {
		tr := scriptTrainer(t, "empty", "echo '{\"success\":true}'\n")
		if _, err := NewExecutor(5000).Train(context.Background(), tr, testRequest()); !errors.Is(err, ErrTrainingFailed) {
			t.Errorf("expected ErrTrainingFailed, got %v", err)
		}
	})

	t.Run("kind from manifest", func(t *testing.T) {
		tr := scriptTrainer(t, "nokind", "echo '{\"success\":true,\"model_path\":\"model.json\"}'\n")
		resp, err := NewExecutor(5000).Train(context.Background(), tr, testRequest())
		if err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if resp.Kind != "centroid" {
			t.Errorf("kind = %q, want centroid", resp.Kind)
		}
	})
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3000)
	if executor == nil {
		t.Fatal("NewExecutor() returned nil")
	}
	if executor.timeoutMs != 3000 {
		t.Errorf("expected timeoutMs=3000, got %d", executor.timeoutMs)
	}
}
