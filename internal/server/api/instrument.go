package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/store"
)

// Instrument is the part of the running instrument the API controls.
type Instrument interface {
	Status() app.Status
	SetDisplaySize(width, height int) error
	SetMuted(muted bool)
}

// InstrumentHandler serves /api/status, /api/display and /api/mute.
type InstrumentHandler struct {
	instrument Instrument
	store      *store.Store
}

// NewInstrumentHandler creates an InstrumentHandler. When s is non-nil the
// mute state is persisted.
func NewInstrumentHandler(instrument Instrument, s *store.Store) *InstrumentHandler {
	return &InstrumentHandler{instrument: instrument, store: s}
}

type displayRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

// Status handles GET /api/status.
func (h *InstrumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.instrument.Status())
}

// Display handles PUT /api/display, which the client calls whenever its
// overlay is resized.
func (h *InstrumentHandler) Display(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req displayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.instrument.SetDisplaySize(req.Width, req.Height); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.instrument.Status())
}

// Mute handles PUT /api/mute.
func (h *InstrumentHandler) Mute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req muteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.instrument.SetMuted(req.Muted)
	if h.store != nil {
		if err := h.store.Settings().SetBool(store.SettingMuted, req.Muted); err != nil {
			log.Printf("Failed to save mute setting: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, h.instrument.Status())
}
