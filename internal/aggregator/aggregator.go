package aggregator

import (
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/privacy"
)

const (
	ShortWindow = 5 * time.Minute
	LongWindow  = time.Hour
)

// Aggregator derives windowed presence counts from one classified snapshot.
// All ages in a snapshot must come from the same cycle time.
type Aggregator struct {
	short time.Duration
	long  time.Duration
}

func New() *Aggregator {
	return &Aggregator{short: ShortWindow, long: LongWindow}
}

func (a *Aggregator) Aggregate(records []model.ClassifiedRecord) model.ClientCount {
	var counts model.ClientCount
	for _, rec := range records {
		if !rec.Category.IsStation() {
			continue
		}
		inShort := rec.Age <= a.short
		inLong := rec.Age <= a.long

		if inShort {
			counts.ClientsLast5Mins++
		}
		if inLong {
			counts.ClientsLastHour++
		}

		if rec.Category != model.CategoryClient || !isCountable(rec.MAC) {
			continue
		}
		if inShort {
			counts.FilteredLast5Mins++
		}
		if inLong {
			counts.FilteredLastHour++
		}
	}
	return counts
}

// isCountable keeps stable, individually addressed identities only.
func isCountable(mac model.MAC) bool {
	return privacy.IsStableIdentity(mac) && privacy.IsUnicast(mac)
}
