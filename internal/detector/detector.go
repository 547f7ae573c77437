package detector

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoDetector is returned when no usable hand detector could be created.
var ErrNoDetector = errors.New("no hand detector available")

// ErrNotReady is returned when a detector cannot serve frames yet.
var ErrNotReady = errors.New("hand detector not ready")

// DefaultStartTimeout bounds how long Start waits for a detector to load.
const DefaultStartTimeout = 30 * time.Second

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Start loads the detector and returns once it can serve frames, or
	// with an error wrapping ErrNotReady when it cannot.
	Start() error

	// Detect analyzes a video frame and returns detected hands in frame pixel space.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// FlipHorizontal mirrors keypoints so they match a selfie-view preview.
	FlipHorizontal bool

	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string

	// StartTimeout bounds the wait for the detector to load its model.
	StartTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		FlipHorizontal:  true,
		StartTimeout:    DefaultStartTimeout,
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.MaxHands < 1 || c.MaxHands > len(Labels):
		return fmt.Errorf("max hands must be between 1 and %d, got %d", len(Labels), c.MaxHands)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("min confidence must be within [0, 1], got %v", c.MinConfidence)
	case c.MinTrackingConf < 0 || c.MinTrackingConf > 1:
		return fmt.Errorf("min tracking confidence must be within [0, 1], got %v", c.MinTrackingConf)
	case c.StartTimeout < 0:
		return fmt.Errorf("start timeout must not be negative, got %v", c.StartTimeout)
	}
	return nil
}
