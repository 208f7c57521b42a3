package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTrainingFailed is returned when a trainer reports success=false.
var ErrTrainingFailed = errors.New("training failed")

// Executor runs trainers with a timeout.
type Executor struct {
	timeoutMs int
}

// NewExecutor creates a new Executor with the specified timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{
		timeoutMs: timeoutMs,
	}
}

// Execute runs a trainer with the given request and returns its response.
// The request is written to the trainer's stdin and stdout is parsed as a
// Response.
func (e *Executor) Execute(ctx context.Context, t *Trainer, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Executable)
	cmd.Dir = t.Path
	// Children of a killed trainer may keep stdout open.
	cmd.WaitDelay = time.Second

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("trainer %s timed out after %dms", t.Manifest.Name, e.timeoutMs)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("trainer %s: %w", t.Manifest.Name, ctx.Err())
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("trainer %s failed: %w, stderr: %s", t.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("trainer %s failed: %w", t.Manifest.Name, err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse trainer response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}

// Train is Execute that also treats success=false as an error and fills in
// the model kind from the manifest when the trainer leaves it out.
func (e *Executor) Train(ctx context.Context, t *Trainer, req *Request) (*Response, error) {
	resp, err := e.Execute(ctx, t, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%w: %s: %s", ErrTrainingFailed, t.Manifest.Name, resp.Error)
	}
	if resp.ModelPath == "" {
		return resp, fmt.Errorf("%w: %s returned no model path", ErrTrainingFailed, t.Manifest.Name)
	}
	if resp.Kind == "" {
		resp.Kind = t.Manifest.Kind
	}
	return resp, nil
}
