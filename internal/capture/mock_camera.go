package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera replays a fixed list of frames. Each read returns a clone, so
// the caller may close it without touching the originals.
type MockCamera struct {
	mu sync.Mutex

	frames []*gocv.Mat
	next   int
	loop   bool
	open   bool
	fps    int
	size   image.Point
	reads  int

	openErr  error
	readErrs []error
}

// NewMockCamera replays frames once, or forever when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

// FailOpen makes Open return err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// FailReads queues errors returned by the next reads, one per read, before
// playback resumes.
func (c *MockCamera) FailReads(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErrs = append(c.readErrs, errs...)
}

// Reads counts ReadFrame calls, failed ones included.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if len(c.readErrs) > 0 {
		err := c.readErrs[0]
		c.readErrs = c.readErrs[1:]
		return nil, err
	}
	if c.next == len(c.frames) && c.loop {
		c.next = 0
	}
	if c.next >= len(c.frames) {
		return nil, ErrNoFrames
	}

	frame := c.frames[c.next].Clone()
	c.next++
	c.size = image.Pt(frame.Cols(), frame.Rows())
	return &frame, nil
}

func (c *MockCamera) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
