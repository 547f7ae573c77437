package detector

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleTimeout stops the hand service after a stretch without frames.
const idleTimeout = 30 * time.Second

// restartBackoff is how long Detect waits after a failed service before
// starting another one.
const restartBackoff = 5 * time.Second

// jpegQuality trades detection accuracy for pipe bandwidth.
const jpegQuality = 85

// MediaPipeDetector implements Detector on top of the MediaPipe hand service.
// Start launches the service and waits for its handshake. The service stops
// when idle and is started again by the next frame, at most once per
// restartBackoff after a failure.
type MediaPipeDetector struct {
	config Config
	python string

	mu       sync.Mutex
	svc      *handService
	idle     *time.Timer
	failedAt time.Time
}

// NewMediaPipeDetector locates the service script and interpreter. It does
// not start the service.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ScriptPath == "" {
		config.ScriptPath = findServiceScript()
	}
	if config.ScriptPath == "" {
		return nil, fmt.Errorf("%s: %w", serviceScript, ErrNoDetector)
	}
	return &MediaPipeDetector{config: config, python: findPython()}, nil
}

// Start launches the hand service if needed and waits until its model is
// loaded. Failures wrap ErrNotReady.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.svc != nil {
		return nil
	}
	return d.startLocked()
}

func (d *MediaPipeDetector) startLocked() error {
	svc, err := startHandService(d.python, d.config.ScriptPath, d.args()...)
	if err == nil {
		if err = svc.awaitReady(d.config.StartTimeout); err != nil {
			svc.kill()
		}
	}
	if err != nil {
		d.failedAt = time.Now()
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	d.svc = svc
	d.failedAt = time.Time{}
	d.touchLocked()
	return nil
}

// Detect returns the hands in frame, scaled to the frame's pixel size.
// Hands scoring below MinConfidence are dropped.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{int(gocv.IMWriteJpegQuality), jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		if wait := restartBackoff - time.Since(d.failedAt); !d.failedAt.IsZero() && wait > 0 {
			return nil, fmt.Errorf("%w: retrying in %v", ErrNotReady, wait.Round(time.Millisecond))
		}
		if err := d.startLocked(); err != nil {
			return nil, err
		}
	}

	resp, err := d.svc.roundTrip(buf.GetBytes())
	if err != nil {
		if !errors.Is(err, errServiceReported) {
			d.stopLocked()
			d.failedAt = time.Now()
		}
		return nil, err
	}
	d.touchLocked()

	width, height := float64(frame.Cols()), float64(frame.Rows())
	hands := make([]Hand, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		if h.Score < d.config.MinConfidence {
			continue
		}
		hands = append(hands, h.toHand(width, height, d.config.FlipHorizontal))
	}
	return hands, nil
}

// Close stops the hand service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) args() []string {
	return []string{
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
}

func (d *MediaPipeDetector) touchLocked() {
	if d.idle != nil {
		d.idle.Reset(idleTimeout)
		return
	}
	d.idle = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stopLocked()
	})
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}
	err := d.svc.stop()
	d.svc = nil
	return err
}
