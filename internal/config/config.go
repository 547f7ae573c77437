// Package config loads the instrument settings from an optional config file
// and MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/notes"
	"github.com/ayusman/mudra/internal/stroke"
	"github.com/ayusman/mudra/internal/trail"
)

// EnvPrefix prefixes every environment override, e.g. MUDRA_SERVER_ADDR.
const EnvPrefix = "MUDRA"

// Config is the full application configuration.
type Config struct {
	Camera   CameraConfig   `mapstructure:"camera"`
	Display  DisplayConfig  `mapstructure:"display"`
	Detector DetectorConfig `mapstructure:"detector"`
	Gesture  GestureConfig  `mapstructure:"gesture"`
	Trail    TrailConfig    `mapstructure:"trail"`
	Stroke   StrokeConfig   `mapstructure:"stroke"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Tray     bool           `mapstructure:"tray"`
}

// CameraConfig selects the capture device and its frame rate.
type CameraConfig struct {
	ID  int `mapstructure:"id"`
	FPS int `mapstructure:"fps"`
}

// DisplayConfig is the initial overlay size until a client reports its own.
type DisplayConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// DetectorConfig tunes the MediaPipe hand service.
type DetectorConfig struct {
	MaxHands        int     `mapstructure:"max_hands"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MinTrackingConf float64 `mapstructure:"min_tracking_confidence"`
	Flip            bool    `mapstructure:"flip"`
	Script          string  `mapstructure:"script"`
	// StartTimeout bounds the wait for the service to load its model.
	StartTimeout time.Duration `mapstructure:"start_timeout"`
}

// GestureConfig names the touch gesture and how close the fingertips must be.
type GestureConfig struct {
	Name           string  `mapstructure:"name"`
	TouchThreshold float64 `mapstructure:"touch_threshold"`
}

// TrailConfig controls how long trail points live.
type TrailConfig struct {
	Lifetime time.Duration `mapstructure:"lifetime"`
}

// StrokeConfig controls how trails are drawn onto the overlay.
type StrokeConfig struct {
	Style        string  `mapstructure:"style"`
	MaxHalfWidth float64 `mapstructure:"max_half_width"`
	Iterations   int     `mapstructure:"iterations"`
	Glow         float64 `mapstructure:"glow"`
	// Fade is how much of the previous frame's overlay is erased each cycle.
	Fade float64 `mapstructure:"fade"`
}

// NotesConfig configures the note engine. Durations use Go syntax, e.g. "100ms".
type NotesConfig struct {
	Threshold    float64       `mapstructure:"threshold"`
	MaxDistance  float64       `mapstructure:"max_distance"`
	Interval     time.Duration `mapstructure:"interval"`
	NoteDuration time.Duration `mapstructure:"note_duration"`
	Policy       string        `mapstructure:"policy"`
	Movement     string        `mapstructure:"movement"`
	LeftNote     string        `mapstructure:"left_note"`
	RightNote    string        `mapstructure:"right_note"`
}

// ServerConfig is the HTTP listen address and static file root.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

// StoreConfig locates the session database.
type StoreConfig struct {
	// Path of the sqlite database. Empty disables session recording.
	Path string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := detector.DefaultConfig()
	n := notes.DefaultConfig()
	return Config{
		Camera:  CameraConfig{ID: 0, FPS: 30},
		Display: DisplayConfig{Width: 1280, Height: 720},
		Detector: DetectorConfig{
			MaxHands:        d.MaxHands,
			MinConfidence:   d.MinConfidence,
			MinTrackingConf: d.MinTrackingConf,
			Flip:            d.FlipHorizontal,
			StartTimeout:    d.StartTimeout,
		},
		Gesture: GestureConfig{Name: "notes", TouchThreshold: gesture.DefaultTouchThreshold},
		Trail:   TrailConfig{Lifetime: trail.DefaultLifetime},
		Stroke: StrokeConfig{
			Style:        string(stroke.StyleRibbon),
			MaxHalfWidth: stroke.DefaultMaxHalfWidth,
			Iterations:   stroke.DefaultIterations,
			Glow:         stroke.DefaultGlow,
			Fade:         1,
		},
		Notes: NotesConfig{
			Threshold:    n.Threshold,
			MaxDistance:  n.MaxDistance,
			Interval:     n.Interval,
			NoteDuration: n.NoteDuration,
			Policy:       string(n.Policy),
			Movement:     string(n.Movement),
			LeftNote:     string(n.FixedNotes[detector.Left]),
			RightNote:    string(n.FixedNotes[detector.Right]),
		},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: defaultStorePath()},
		Tray:   true,
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mudra", "mudra.db")
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("camera.id", c.Camera.ID)
	v.SetDefault("camera.fps", c.Camera.FPS)
	v.SetDefault("display.width", c.Display.Width)
	v.SetDefault("display.height", c.Display.Height)
	v.SetDefault("detector.max_hands", c.Detector.MaxHands)
	v.SetDefault("detector.min_confidence", c.Detector.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", c.Detector.MinTrackingConf)
	v.SetDefault("detector.flip", c.Detector.Flip)
	v.SetDefault("detector.script", c.Detector.Script)
	v.SetDefault("detector.start_timeout", c.Detector.StartTimeout)
	v.SetDefault("gesture.name", c.Gesture.Name)
	v.SetDefault("gesture.touch_threshold", c.Gesture.TouchThreshold)
	v.SetDefault("trail.lifetime", c.Trail.Lifetime)
	v.SetDefault("stroke.style", c.Stroke.Style)
	v.SetDefault("stroke.max_half_width", c.Stroke.MaxHalfWidth)
	v.SetDefault("stroke.iterations", c.Stroke.Iterations)
	v.SetDefault("stroke.glow", c.Stroke.Glow)
	v.SetDefault("stroke.fade", c.Stroke.Fade)
	v.SetDefault("notes.threshold", c.Notes.Threshold)
	v.SetDefault("notes.max_distance", c.Notes.MaxDistance)
	v.SetDefault("notes.interval", c.Notes.Interval)
	v.SetDefault("notes.note_duration", c.Notes.NoteDuration)
	v.SetDefault("notes.policy", c.Notes.Policy)
	v.SetDefault("notes.movement", c.Notes.Movement)
	v.SetDefault("notes.left_note", c.Notes.LeftNote)
	v.SetDefault("notes.right_note", c.Notes.RightNote)
	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("server.static_dir", c.Server.StaticDir)
	v.SetDefault("store.path", c.Store.Path)
	v.SetDefault("tray", c.Tray)
}

// Load reads the configuration. An empty path looks for mudra.{yaml,json,toml}
// in the working directory and ~/.mudra, and a missing file there is not an
// error. Environment variables override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mudra")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mudra"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera fps must be positive, got %d", c.Camera.FPS)
	}
	if err := c.DetectorConfig().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if _, err := c.GestureDefinition(); err != nil {
		return err
	}
	switch stroke.Style(c.Stroke.Style) {
	case stroke.StyleRibbon, stroke.StyleLine:
	default:
		return fmt.Errorf("unknown stroke style %q", c.Stroke.Style)
	}
	if c.Stroke.Fade < 0 || c.Stroke.Fade > 1 {
		return fmt.Errorf("stroke fade must be within 0-1, got %v", c.Stroke.Fade)
	}
	if err := c.NoteEngine().Validate(); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	for _, n := range []string{c.Notes.LeftNote, c.Notes.RightNote} {
		if n != "" && !audio.Note(n).Valid() {
			return fmt.Errorf("invalid note %q", n)
		}
	}
	return nil
}

// DetectorConfig converts to the detector's own configuration.
func (c Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConf,
		FlipHorizontal:  c.Detector.Flip,
		ScriptPath:      c.Detector.Script,
		StartTimeout:    c.Detector.StartTimeout,
	}
}

// GestureDefinition resolves the configured gesture with its touch threshold.
func (c Config) GestureDefinition() (gesture.Definition, error) {
	def, err := gesture.ByName(c.Gesture.Name)
	if err != nil {
		return gesture.Definition{}, err
	}
	if c.Gesture.TouchThreshold > 0 {
		def.TouchThreshold = c.Gesture.TouchThreshold
	}
	return def, nil
}

// NoteEngine converts to the note engine's configuration.
func (c Config) NoteEngine() notes.Config {
	return notes.Config{
		Threshold:    c.Notes.Threshold,
		MaxDistance:  c.Notes.MaxDistance,
		Interval:     c.Notes.Interval,
		NoteDuration: c.Notes.NoteDuration,
		Policy:       notes.Policy(c.Notes.Policy),
		Movement:     notes.Movement(c.Notes.Movement),
		FixedNotes: map[detector.Label]audio.Note{
			detector.Left:  audio.Note(c.Notes.LeftNote),
			detector.Right: audio.Note(c.Notes.RightNote),
		},
	}
}
