package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera replays a fixed sequence of frames, once or in a loop.
// Each read returns a clone, so callers may close what they get.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	loop   bool
	open   bool
	pos    int
	reads  int
}

// NewMockCamera returns a camera that replays frames.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop}
}

// Open rewinds playback.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open, c.pos = true, 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// ReadFrame returns the next frame, or ErrEndOfStream once a non-looping
// sequence is exhausted.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case len(c.frames) == 0:
		return nil, ErrEndOfStream
	case c.pos == len(c.frames) && !c.loop:
		return nil, ErrEndOfStream
	}

	frame := c.frames[c.pos%len(c.frames)].Clone()
	c.pos = c.pos%len(c.frames) + 1
	c.reads++
	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames were delivered.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
