package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// serviceScript is the MediaPipe hand service shipped in scripts/.
const serviceScript = "hand_service.py"

// maxFrameBytes bounds a single encoded frame sent to the service.
const maxFrameBytes = 32 << 20

var (
	errFrameTooLarge = errors.New("encoded frame too large")
	// errServiceReported is a per-frame failure the service answered with;
	// the process itself is still usable.
	errServiceReported = errors.New("hand service")
	errStartTimeout    = errors.New("hand service did not become ready")
)

// handService is one running hand_service.py process. Once its model is
// loaded it writes a single handshake line. Frames then go to its stdin as a
// 4-byte big-endian length followed by the JPEG bytes, and it answers each
// frame with a single JSON line on stdout.
type handService struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// serviceResponse is one line of service output. Point coordinates are
// normalized to [0, 1] of the frame size.
type serviceResponse struct {
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

// handshake is the first line the service writes.
type handshake struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func startHandService(python, script string, args ...string) (*handService, error) {
	cmd := exec.Command(python, append([]string{script}, args...)...)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", filepath.Base(script), err)
	}
	return &handService{cmd: cmd, in: in, out: bufio.NewReader(out)}, nil
}

// roundTrip sends one encoded frame and waits for its answer.
func (s *handService) roundTrip(jpeg []byte) (serviceResponse, error) {
	if err := writeFrame(s.in, jpeg); err != nil {
		return serviceResponse{}, err
	}
	return readResponse(s.out)
}

// awaitReady waits up to timeout for the handshake line. A zero timeout
// waits indefinitely.
func (s *handService) awaitReady(timeout time.Duration) error {
	return readHandshake(s.out, timeout)
}

// kill terminates a service that never became ready.
func (s *handService) kill() {
	s.in.Close()
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	s.cmd.Process.Kill()
	s.cmd.Wait()
}

// stop closes the service's stdin, which ends its read loop, and reaps it.
func (s *handService) stop() error {
	s.in.Close()
	if s.cmd == nil {
		return nil
	}
	return s.cmd.Wait()
}

func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameBytes {
		return fmt.Errorf("%w: %d bytes", errFrameTooLarge, len(data))
	}
	msg := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(msg, uint32(len(data)))
	copy(msg[4:], data)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func readHandshake(r *bufio.Reader, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		line, err := r.ReadBytes('\n')
		if err != nil {
			done <- fmt.Errorf("read handshake: %w", err)
			return
		}
		var hs handshake
		if err := json.Unmarshal(line, &hs); err != nil {
			done <- fmt.Errorf("parse handshake: %w", err)
			return
		}
		if !hs.Ready {
			if hs.Error == "" {
				hs.Error = "not ready"
			}
			done <- fmt.Errorf("hand service: %s", hs.Error)
			return
		}
		done <- nil
	}()

	if timeout <= 0 {
		return <-done
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w within %v", errStartTimeout, timeout)
	}
}

func readResponse(r *bufio.Reader) (serviceResponse, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return serviceResponse{}, fmt.Errorf("read response: %w", err)
	}
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return serviceResponse{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return serviceResponse{}, fmt.Errorf("%w: %s", errServiceReported, resp.Error)
	}
	return resp, nil
}

// toHand scales normalized points to a width x height frame, mirroring x
// when flip is set.
func (h jsonHand) toHand(width, height float64, flip bool) Hand {
	hand := Hand{
		Label:     Label(h.Handedness),
		Score:     h.Score,
		Keypoints: make([]Keypoint, 0, NumLandmarks),
	}
	for i, p := range h.Points {
		if i == NumLandmarks {
			break
		}
		x := p.X * width
		if flip {
			x = width - x
		}
		hand.Keypoints = append(hand.Keypoints, Keypoint{
			X:     x,
			Y:     p.Y * height,
			Score: h.Score,
			Index: i,
			Name:  LandmarkName(i),
		})
	}
	return hand
}

// firstExisting returns the absolute form of the first path that exists.
func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// searchDirs lists where scripts/ and venv/ are looked up: the working
// directory, its parents, next to the executable, then ~/.mudra.
func searchDirs() []string {
	dirs := []string{".", "..", filepath.Join("..", "..")}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".mudra"))
	}
	return dirs
}

func findServiceScript() string {
	var paths []string
	for _, dir := range searchDirs() {
		paths = append(paths, filepath.Join(dir, "scripts", serviceScript))
	}
	return firstExisting(paths...)
}

// findPython prefers a virtual environment's interpreter over python3 on PATH.
func findPython() string {
	var paths []string
	for _, dir := range searchDirs() {
		paths = append(paths, filepath.Join(dir, "venv", "bin", "python"))
	}
	if p := firstExisting(paths...); p != "" {
		return p
	}
	return "python3"
}
