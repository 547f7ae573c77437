// Package detector provides hand detection interfaces and keypoint types for the instrument.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

var landmarkNames = [NumLandmarks]string{
	"wrist",
	"thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip",
	"index_finger_mcp", "index_finger_pip", "index_finger_dip", "index_finger_tip",
	"middle_finger_mcp", "middle_finger_pip", "middle_finger_dip", "middle_finger_tip",
	"ring_finger_mcp", "ring_finger_pip", "ring_finger_dip", "ring_finger_tip",
	"pinky_finger_mcp", "pinky_finger_pip", "pinky_finger_dip", "pinky_finger_tip",
}

// LandmarkName returns the MediaPipe name of a landmark index, or "" when out of range.
func LandmarkName(index int) string {
	if index < 0 || index >= NumLandmarks {
		return ""
	}
	return landmarkNames[index]
}

// Label identifies which hand a detection belongs to.
type Label string

const (
	Left  Label = "Left"
	Right Label = "Right"
)

// Labels lists the two hands the instrument tracks, in a stable order.
var Labels = [2]Label{Left, Right}

// ParseLabel converts a detector handedness string into a Label.
func ParseLabel(s string) (Label, bool) {
	switch Label(s) {
	case Left:
		return Left, true
	case Right:
		return Right, true
	}
	return "", false
}

// Keypoint is a single landmark in native frame pixel space.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
	Index int     `json:"index"`
	Name  string  `json:"name"`
}

// Hand is one detected hand with its keypoints ordered by landmark index.
type Hand struct {
	Label     Label      `json:"label"`
	Score     float64    `json:"score"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Keypoint returns the keypoint at the given landmark index.
// The second return value is false when the detection does not include it.
func (h *Hand) Keypoint(index int) (Keypoint, bool) {
	if h == nil || index < 0 || index >= len(h.Keypoints) {
		return Keypoint{}, false
	}
	return h.Keypoints[index], true
}

// PerLabel keeps at most one hand per label, preferring the higher score.
// Hands with an unknown label are dropped.
func PerLabel(hands []Hand) map[Label]*Hand {
	out := make(map[Label]*Hand, len(Labels))
	for i := range hands {
		h := &hands[i]
		label, ok := ParseLabel(string(h.Label))
		if !ok {
			continue
		}
		if cur, exists := out[label]; exists && cur.Score >= h.Score {
			continue
		}
		out[label] = h
	}
	return out
}
