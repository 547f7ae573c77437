package detector

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []Hand
	err      error
	startErr error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetStartError makes Start fail with err wrapped in ErrNotReady.
func (m *MockDetector) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// Start reports the configured start error, if any.
func (m *MockDetector) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, m.startErr)
	}
	return nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenHand returns a hand whose thumb tip sits at (x, y) with every other
// landmark spread well outside touching range.
func OpenHand(label Label, x, y float64) Hand {
	hand := Hand{
		Label:     label,
		Score:     0.95,
		Keypoints: make([]Keypoint, NumLandmarks),
	}
	for i := 0; i < NumLandmarks; i++ {
		hand.Keypoints[i] = Keypoint{
			X:     x + 60 + float64(i)*20,
			Y:     y - 120,
			Score: 0.95,
			Index: i,
			Name:  LandmarkName(i),
		}
	}
	hand.Keypoints[ThumbTip] = Keypoint{X: x, Y: y, Score: 0.95, Index: ThumbTip, Name: LandmarkName(ThumbTip)}
	return hand
}

// PinchHand returns a hand with the thumb tip at (x, y) and the given
// landmarks pressed against it, each a few pixels to its right.
func PinchHand(label Label, x, y float64, touching ...int) Hand {
	hand := OpenHand(label, x, y)
	for n, idx := range touching {
		if idx < 0 || idx >= NumLandmarks || idx == ThumbTip {
			continue
		}
		hand.Keypoints[idx].X = x + 4 + float64(n)
		hand.Keypoints[idx].Y = y
	}
	return hand
}
