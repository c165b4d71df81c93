package classifier

import (
	"errors"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/privacy"
)

// ErrDropped marks a device whose category is outside the reported vocabulary.
var ErrDropped = errors.New("unrecognized device category")

// Result is the outcome of classifying one snapshot.
type Result struct {
	Records   []model.ClassifiedRecord
	Dropped   int
	Malformed int
}

func Classify(raw model.SightedDevice, now time.Time) (model.ClassifiedRecord, error) {
	category := model.ParseCategory(raw.Type)
	if category == model.CategoryUnknown {
		return model.ClassifiedRecord{}, ErrDropped
	}
	mac, err := model.ParseMAC(raw.MAC)
	if err != nil {
		return model.ClassifiedRecord{}, &model.MalformedRecordError{Field: "mac", Value: raw.MAC, Reason: err.Error()}
	}
	if raw.LastSeen.IsZero() {
		return model.ClassifiedRecord{}, &model.MalformedRecordError{Field: "last_seen", Value: raw.MAC, Reason: "missing timestamp"}
	}

	age := now.Sub(raw.LastSeen)
	if age < 0 {
		age = 0
	}

	record := model.ClassifiedRecord{
		MAC:                 mac,
		Name:                raw.Name,
		Category:            category,
		Signal:              raw.Signal,
		Noise:               raw.Noise,
		Channel:             raw.Channel,
		LastSeen:            raw.LastSeen,
		Age:                 age,
		LocallyAdministered: privacy.IsLocallyAdministered(mac),
	}
	if category == model.CategoryAP {
		record.Crypt = raw.Crypt
	}
	return record, nil
}

// ClassifyAll classifies a snapshot against one now. Dropped and malformed
// devices are counted and skipped; they never fail the batch.
func ClassifyAll(raws []model.SightedDevice, now time.Time) Result {
	res := Result{Records: make([]model.ClassifiedRecord, 0, len(raws))}
	for _, raw := range raws {
		record, err := Classify(raw, now)
		switch {
		case err == nil:
			res.Records = append(res.Records, record)
		case errors.Is(err, ErrDropped):
			res.Dropped++
		default:
			res.Malformed++
		}
	}
	return res
}
