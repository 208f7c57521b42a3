package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hand  *HandLandmarks
	queue []*HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand returned by Detect once the queue is drained.
// A nil hand means "no hand detected".
func (m *MockDetector) SetHand(hand *HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
}

// Queue appends per-call results. Each Detect call consumes one entry.
func (m *MockDetector) Queue(hands ...*HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, hands...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued hand, the configured hand, or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hand, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// knuckles holds the base joint of each finger, thumb first, for a right
// hand with the wrist at (0.5, 0.8). Image Y grows downward.
var knuckles = [5]Point3D{
	{X: 0.55, Y: 0.75},
	{X: 0.55, Y: 0.68},
	{X: 0.50, Y: 0.66},
	{X: 0.45, Y: 0.68},
	{X: 0.40, Y: 0.70},
}

// chain is the offset of each of a finger's three outer joints from the previous one.
type chain [3]Point3D

var (
	curled = chain{{X: 0, Y: -0.02, Z: -0.03}, {X: -0.03, Y: 0.02, Z: 0.01}, {X: -0.02, Y: 0.02, Z: 0.02}}

	palmFingers = [5]chain{
		{{X: 0.07, Y: -0.05, Z: 0.01}, {X: 0.06, Y: -0.05}, {X: 0.05, Y: -0.05}},
		{{X: 0.02, Y: -0.13}, {X: 0.01, Y: -0.10}, {X: 0, Y: -0.10}},
		{{X: 0, Y: -0.14}, {X: 0, Y: -0.12}, {X: 0, Y: -0.12}},
		{{X: -0.02, Y: -0.13}, {X: -0.01, Y: -0.10}, {X: 0, Y: -0.10}},
		{{X: -0.03, Y: -0.10}, {X: -0.02, Y: -0.10}, {X: -0.01, Y: -0.08}},
	}

	thumbsUpFingers = [5]chain{
		{{X: 0.03, Y: -0.10}, {X: 0, Y: -0.15}, {X: 0, Y: -0.15}},
		curled, curled, curled, curled,
	}
)

func pose(fingers [5]chain) HandLandmarks {
	hand := HandLandmarks{Handedness: "Right", Score: 0.95}
	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	for f, steps := range fingers {
		base := 1 + 4*f
		p := knuckles[f]
		hand.Points[base] = p
		for k, step := range steps {
			p = Point3D{X: p.X + step.X, Y: p.Y + step.Y, Z: p.Z + step.Z}
			hand.Points[base+k+1] = p
		}
	}
	return hand
}

// ThumbsUpLandmarks returns a right hand with the thumb raised and the
// other fingers curled into the palm.
func ThumbsUpLandmarks() HandLandmarks {
	return pose(thumbsUpFingers)
}

// OpenPalmLandmarks returns a right hand with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return pose(palmFingers)
}

// CollapsedLandmarks returns a hand with every landmark at the same point,
// the degenerate output some detectors produce on heavily blurred frames.
func CollapsedLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.9,
	}
	for i := range landmarks.Points {
		landmarks.Points[i] = Point3D{X: 0.4, Y: 0.6}
	}
	return landmarks
}
