package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/feed"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/scheduler"
	"github.com/gorilla/websocket"
)

const sensorPingTimeout = 2 * time.Second

// Scheduler exposes cycle state and manual refresh.
type Scheduler interface {
	TriggerRefresh()
	State() scheduler.State
	LastStatus() (scheduler.Status, bool)
}

// Feed holds the latest assembled report.
type Feed interface {
	Latest() (feed.Snapshot, bool)
	Subscribe() (<-chan []byte, func())
}

// Sensor is the sensing backend health probe.
type Sensor interface {
	Ping(ctx context.Context) error
}

type VendorLookup interface {
	Lookup(mac model.MAC) string
}

// API groups HTTP handlers and dependencies.
type API struct {
	scheduler Scheduler
	feed      Feed
	sensor    Sensor
	vendors   VendorLookup
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// New creates HTTP handlers with explicit dependencies.
func New(
	scheduler Scheduler,
	feed Feed,
	sensor Sensor,
	vendors VendorLookup,
	logger *slog.Logger,
) *API {
	return &API{
		scheduler: scheduler,
		feed:      feed,
		sensor:    sensor,
		vendors:   vendors,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness, the cycle state and whether the sensor answers.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	sensorOK := false
	if a.sensor != nil {
		ctx, cancel := context.WithTimeout(r.Context(), sensorPingTimeout)
		defer cancel()
		if err := a.sensor.Ping(ctx); err != nil {
			a.logger.Debug("sensor ping failed", "err", err)
		} else {
			sensorOK = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"state":  a.scheduler.State().String(),
		"sensor": sensorOK,
	})
}

// Status returns the outcome of the most recent cycle.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"state":      a.scheduler.State().String(),
		"last_cycle": nil,
	}
	if last, ok := a.scheduler.LastStatus(); ok {
		payload["last_cycle"] = last
	}
	writeJSON(w, http.StatusOK, payload)
}

// Report serves the last assembled report exactly as it was sent upstream.
func (a *API) Report(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := a.feed.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no_report", "No report assembled yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", snapshot.AssembledAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snapshot.Body)
}

// Refresh queues an extra cycle.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	a.scheduler.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
