package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/stroke"
	"github.com/ayusman/mudra/internal/tray"
)

var configPath = flag.String("config", "", "Path to a mudra config file (yaml, json or toml)")

func main() {
	flag.Parse()
	fmt.Println("Mudra - Hand Gesture Instrument")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, session := openStore(cfg.Store.Path, cfg)
	if st != nil {
		defer st.Close()
	}

	hub := audio.NewHub()
	defer hub.Close()

	voices := make(map[detector.Label]audio.Voice, len(detector.Labels))
	for _, l := range detector.Labels {
		var v audio.Voice = hub.Voice(string(l))
		if session != nil {
			v = audio.NewRecorder(v, string(l), st.Sessions().Sink(session.ID), func(err error) {
				log.Printf("Failed to record note event: %v", err)
			})
		}
		voices[l] = v
	}

	det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err != nil {
		log.Fatalf("MediaPipe hand detection not available: %v", err)
	}
	log.Println("Using MediaPipe hand detection")

	def, err := cfg.GestureDefinition()
	if err != nil {
		log.Fatalf("Invalid gesture: %v", err)
	}

	application, err := app.New(app.Config{
		Camera: capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.ID,
			FPS:      cfg.Camera.FPS,
			Width:    capture.DefaultWidth,
			Height:   capture.DefaultHeight,
		}),
		Detector:      det,
		Voices:        voices,
		Gesture:       def,
		TrailLifetime: cfg.Trail.Lifetime,
		Stroke: app.StrokeConfig{
			Style:        stroke.Style(cfg.Stroke.Style),
			MaxHalfWidth: cfg.Stroke.MaxHalfWidth,
			Iterations:   cfg.Stroke.Iterations,
			Glow:         cfg.Stroke.Glow,
			Fade:         cfg.Stroke.Fade,
		},
		Notes:   cfg.NoteEngine(),
		FPS:     cfg.Camera.FPS,
		Display: image.Pt(cfg.Display.Width, cfg.Display.Height),
		Mirror:  cfg.Detector.Flip,
		Blur:    canvas.GaussianBlur,
	})
	if err != nil {
		log.Fatalf("Failed to create instrument: %v", err)
	}
	if st != nil {
		application.SetMuted(st.Settings().Bool(store.SettingMuted, false))
	}

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start instrument: %v", err)
	}

	webDir := findWebDir(cfg.Server.StaticDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Instrument: application,
		Notes:      hub,
		StreamFPS:  15,
	})
	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray {
		runTray(ctx, stop, application, st, cfg.Server.Addr)
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	application.Stop()
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if session != nil {
		if err := st.Sessions().End(session.ID); err != nil {
			log.Printf("Failed to close session: %v", err)
		}
	}
}

// openStore opens the session database and starts a session. Recording is
// skipped when no path is configured or the database cannot be opened.
func openStore(path string, cfg config.Config) (*store.Store, *store.Session) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("Failed to create data directory: %v", err)
		return nil, nil
	}

	st, err := store.New(path)
	if err != nil {
		log.Printf("Failed to initialize store, sessions will not be recorded: %v", err)
		return nil, nil
	}

	session, err := st.Sessions().Start(cfg.Gesture.Name, cfg.Notes.Policy)
	if err != nil {
		log.Printf("Failed to start session: %v", err)
		return st, nil
	}
	log.Printf("Recording session %s", session.ID)
	return st, session
}

// runTray shows the tray menu until quit or ctx is cancelled.
func runTray(ctx context.Context, stop context.CancelFunc, application *app.App, st *store.Store, addr string) {
	t := tray.New()
	t.SetSound(!application.IsMuted())
	t.OnSound(func(on bool) {
		application.SetMuted(!on)
		if st != nil {
			if err := st.Settings().SetBool(store.SettingMuted, !on); err != nil {
				log.Printf("Failed to save mute setting: %v", err)
			}
		}
	})
	t.OnOpen(func() {
		openBrowser(localURL(addr))
	})
	t.OnQuit(stop)
	application.OnNote(t.SetNote)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func localURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir returns the configured directory, or searches "web", "../web",
// "../../web" and ~/.mudra/web. Returns an empty string if none exists.
func findWebDir(configured string) string {
	candidates := []string{configured, "web", "../web", "../../web"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".mudra", "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
