package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/oui"
)

type deviceItem struct {
	model.Entry
	Vendor string `json:"vendor"`
}

// ListDevices returns the devices of the last report with vendor names.
// The optional max_age query parameter narrows the list, e.g. max_age=5m.
func (a *API) ListDevices(w http.ResponseWriter, r *http.Request) {
	maxAge := time.Duration(-1)
	if raw := strings.TrimSpace(r.URL.Query().Get("max_age")); raw != "" {
		value, err := time.ParseDuration(raw)
		if err != nil || value < 0 {
			writeError(w, http.StatusBadRequest, "invalid_max_age", "max_age must be a non-negative duration")
			return
		}
		maxAge = value
	}

	snapshot, ok := a.feed.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no_report", "No report assembled yet")
		return
	}

	items := make([]deviceItem, 0, len(snapshot.Report.Devices))
	for _, entry := range snapshot.Report.Devices {
		if maxAge >= 0 && entry.Age > maxAge.Milliseconds() {
			continue
		}
		items = append(items, deviceItem{Entry: entry, Vendor: a.vendor(entry.MACAddress)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assembled_at": snapshot.AssembledAt.UTC(),
		"items":        items,
	})
}

func (a *API) vendor(raw string) string {
	mac, err := model.ParseMAC(raw)
	if err != nil || a.vendors == nil {
		return oui.Unknown
	}
	return a.vendors.Lookup(mac)
}
