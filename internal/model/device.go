package model

import "time"

// Category is the closed set of device kinds the pipeline reports on.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryAP
	CategoryClient
	CategoryBridged
	CategoryDevice
)

// ParseCategory maps the sensing engine's type strings onto a Category.
// Anything outside the four Wi-Fi tags is CategoryUnknown.
func ParseCategory(raw string) Category {
	switch raw {
	case "Wi-Fi AP":
		return CategoryAP
	case "Wi-Fi Client":
		return CategoryClient
	case "Wi-Fi Bridged":
		return CategoryBridged
	case "Wi-Fi Device":
		return CategoryDevice
	default:
		return CategoryUnknown
	}
}

func (c Category) String() string {
	switch c {
	case CategoryAP:
		return "Wi-Fi AP"
	case CategoryClient:
		return "Wi-Fi Client"
	case CategoryBridged:
		return "Wi-Fi Bridged"
	case CategoryDevice:
		return "Wi-Fi Device"
	default:
		return "unknown"
	}
}

// IsStation reports whether the category counts towards client totals.
func (c Category) IsStation() bool {
	return c == CategoryClient || c == CategoryBridged || c == CategoryDevice
}

// SightedDevice is one device as reported by the sensing engine.
type SightedDevice struct {
	MAC      string
	Name     string
	Type     string
	Signal   int
	Noise    int
	Channel  int
	LastSeen time.Time
	Crypt    string
}

// ClassifiedRecord is a SightedDevice normalized against a single cycle time.
type ClassifiedRecord struct {
	MAC                 MAC
	Name                string
	Category            Category
	Signal              int
	Noise               int
	Channel             int
	LastSeen            time.Time
	Crypt               string
	Age                 time.Duration
	LocallyAdministered bool
}

// DisplayName falls back to the MAC when no broadcast name was seen.
func (r ClassifiedRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.MAC.String()
}

func (r ClassifiedRecord) SignalToNoise() int {
	return r.Signal - r.Noise
}

func (r ClassifiedRecord) AgeMillis() int64 {
	return r.Age.Milliseconds()
}
