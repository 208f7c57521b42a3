// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEndOfStream is returned when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")

	// ErrReadFailed is returned when a live camera yields no usable frame.
	ErrReadFailed = errors.New("camera read failed")
)

// Camera is a source of frames. ReadFrame hands ownership of the returned
// Mat to the caller.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// Config selects the capture source.
type Config struct {
	// Device is the camera index used when Source is empty.
	Device int

	// Source is a video file or stream URL to read instead of a camera.
	Source string

	Width  int
	Height int
	FPS    int

	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool
}

// DefaultConfig returns settings for the default camera.
func DefaultConfig() Config {
	return Config{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Mirror: true,
	}
}

func (c Config) finite() bool { return c.Source != "" }

func (c Config) String() string {
	if c.finite() {
		return c.Source
	}
	return fmt.Sprintf("camera %d", c.Device)
}

// VideoCamera reads frames from a camera device or a video source through
// OpenCV.
type VideoCamera struct {
	config Config

	mu  sync.Mutex
	dev *gocv.VideoCapture
}

// NewCamera creates a VideoCamera. Zero sizes and rates fall back to the
// defaults. Nothing is opened until Open.
func NewCamera(config Config) *VideoCamera {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	return &VideoCamera{config: config}
}

// Config returns the effective configuration.
func (c *VideoCamera) Config() Config {
	return c.config
}

// Open starts capture. Opening an open camera is a no-op.
func (c *VideoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		return nil
	}

	var (
		dev *gocv.VideoCapture
		err error
	)
	if c.config.finite() {
		dev, err = gocv.OpenVideoCapture(c.config.Source)
	} else {
		dev, err = gocv.OpenVideoCapture(c.config.Device)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", c.config, err)
	}

	// Files carry their own geometry and rate.
	if !c.config.finite() {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
		dev.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
		dev.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))
	}

	c.dev = dev
	return nil
}

// Close releases the device. Closing a closed camera returns nil.
func (c *VideoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.dev = nil
	return err
}

// ReadFrame reads the next frame, mirrored if configured. A file source
// that runs dry reports ErrEndOfStream; a live camera reports ErrReadFailed.
func (c *VideoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if !c.dev.Read(&mat) || mat.Empty() {
		mat.Close()
		if c.config.finite() {
			return nil, ErrEndOfStream
		}
		return nil, ErrReadFailed
	}

	if c.config.Mirror {
		Mirror(&mat)
	}
	return &mat, nil
}

// IsOpen reports whether capture is running.
func (c *VideoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev != nil
}

// Mirror flips a frame horizontally in place.
func Mirror(mat *gocv.Mat) {
	gocv.Flip(*mat, mat, 1)
}
