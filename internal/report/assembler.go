package report

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
)

// DeviceWindow bounds the devices list.
const DeviceWindow = time.Hour

type Options struct {
	// MaxAccessPoints truncates the ap list after sorting. Zero keeps all.
	MaxAccessPoints int
}

type Assembler struct {
	source string
	opts   Options
}

func NewAssembler(source string, opts Options) *Assembler {
	return &Assembler{source: source, opts: opts}
}

// Assemble builds the report for one cycle. It does not modify records.
func (a *Assembler) Assemble(records []model.ClassifiedRecord, counts model.ClientCount) model.Report {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, compareRecords)

	aps := make([]model.Entry, 0)
	devices := make([]model.Entry, 0, len(sorted))
	for _, rec := range sorted {
		if rec.Category == model.CategoryAP {
			aps = append(aps, toEntry(rec))
		}
		if rec.Age <= DeviceWindow {
			devices = append(devices, toEntry(rec))
		}
	}
	if a.opts.MaxAccessPoints > 0 && len(aps) > a.opts.MaxAccessPoints {
		aps = aps[:a.opts.MaxAccessPoints]
	}

	return model.Report{
		Name:         a.source,
		AccessPoints: aps,
		ClientCount:  counts,
		Devices:      devices,
	}
}

// Encode renders the wire form of a report.
func Encode(r model.Report) ([]byte, error) {
	if r.AccessPoints == nil {
		r.AccessPoints = []model.Entry{}
	}
	if r.Devices == nil {
		r.Devices = []model.Entry{}
	}
	return json.Marshal(r)
}

// compareRecords orders by age ascending, then signal descending. MAC breaks
// the remaining ties so the order does not depend on the engine's output order.
func compareRecords(a, b model.ClassifiedRecord) int {
	if c := cmp.Compare(a.AgeMillis(), b.AgeMillis()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Signal, a.Signal); c != 0 {
		return c
	}
	return cmp.Compare(a.MAC, b.MAC)
}

func toEntry(rec model.ClassifiedRecord) model.Entry {
	entry := model.Entry{
		Name:               rec.DisplayName(),
		Type:               rec.Category.String(),
		MACAddress:         rec.MAC.String(),
		SignalStrength:     rec.Signal,
		Age:                rec.AgeMillis(),
		Channel:            rec.Channel,
		SignalToNoiseRatio: rec.SignalToNoise(),
	}
	if rec.Category == model.CategoryAP {
		crypt := rec.Crypt
		entry.Crypto = &crypt
	}
	return entry
}
