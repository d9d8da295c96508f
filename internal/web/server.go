// Package web is the appliance's remote control surface: a phone-friendly
// page, a small JSON API, and the websocket endpoint feeding the mirror.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"alis/internal/led"
	"alis/internal/mirror"
	"alis/internal/settings"
	"alis/internal/wire"
)

type Server struct {
	ctrl     *led.Controller
	mirror   *mirror.Mirror
	settings *settings.Store
	start    time.Time
}

func New(ctrl *led.Controller, m *mirror.Mirror, st *settings.Store) *Server {
	return &Server{ctrl: ctrl, mirror: m, settings: st, start: time.Now()}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	// Original button-form endpoints; kept so bookmarked phones keep working.
	r.HandleFunc("/start", s.handleStart).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/stop", s.handleStop).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/pattern", s.handlePattern).Methods(http.MethodPost)
	r.HandleFunc("/api/clear", s.handleClear).Methods(http.MethodPost)
	r.HandleFunc("/api/frame", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", s.handleGetSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", s.handlePutSettings).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/ws", s.mirror.ServeWS)
	return withCORS(r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StartTest()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopTest()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, pw, ph := s.ctrl.FramebufferRGB()
	writeJSON(w, map[string]any{
		"uptime_s": time.Since(s.start).Seconds(),
		"pattern":  string(s.ctrl.Pattern()),
		"w":        pw,
		"h":        ph,
		"viewers":  s.mirror.Subscribers(),
	})
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !s.ctrl.SetPattern(req.Pattern) {
		http.Error(w, "unknown pattern", http.StatusBadRequest)
		return
	}
	log.Info().Str("pattern", req.Pattern).Msg("pattern set via web")
	writeJSON(w, map[string]any{"pattern": req.Pattern})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ClearPanel()
	writeJSON(w, map[string]any{"cleared": true})
}

// handleFrame returns the current framebuffer as a full RLE preview frame,
// the same shape the websocket sends.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	rgb, pw, ph := s.ctrl.FramebufferRGB()
	writeJSON(w, wire.ChoosePreview(nil, rgb, 0, 0, pw, ph))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LED struct {
			Brightness *int `json:"brightness"`
		} `json:"led"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.LED.Brightness != nil {
		b := *req.LED.Brightness
		if b < 0 {
			b = 0
		}
		if b > 255 {
			b = 255
		}
		s.settings.Update(func(v *settings.Settings) { v.LED.Brightness = b })
	}
	writeJSON(w, s.settings.Get())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
