package kismet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
)

// Kismet field paths. A path segment separated by "/" descends into a
// nested object; simplified REST responses key the value by its last segment.
const (
	FieldMAC      = "kismet.device.base.macaddr"
	FieldName     = "kismet.device.base.name"
	FieldType     = "kismet.device.base.type"
	FieldCrypt    = "kismet.device.base.crypt"
	FieldChannel  = "kismet.device.base.channel"
	FieldLastTime = "kismet.device.base.last_time"
	FieldSignal   = "kismet.device.base.signal/kismet.common.signal.last_signal"
	FieldNoise    = "kismet.device.base.signal/kismet.common.signal.last_noise"
)

var deviceFields = []string{
	FieldMAC,
	FieldName,
	FieldType,
	FieldCrypt,
	FieldChannel,
	FieldLastTime,
	FieldSignal,
	FieldNoise,
}

// DecodeDevice maps a Kismet device object onto a SightedDevice. It accepts
// both full nested device records and field-simplified REST rows.
func DecodeDevice(obj map[string]any) model.SightedDevice {
	return model.SightedDevice{
		MAC:      str(lookup(obj, FieldMAC)),
		Name:     strings.TrimSpace(str(lookup(obj, FieldName))),
		Type:     str(lookup(obj, FieldType)),
		Crypt:    str(lookup(obj, FieldCrypt)),
		Channel:  ParseChannel(str(lookup(obj, FieldChannel))),
		LastSeen: unixTime(lookup(obj, FieldLastTime)),
		Signal:   integer(lookup(obj, FieldSignal)),
		Noise:    integer(lookup(obj, FieldNoise)),
	}
}

// ParseChannel reads the leading channel number from values such as
// "6", "36", or "6HT40+". Unknown or empty channels yield 0.
func ParseChannel(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.Atoi(raw[:end])
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func lookup(obj map[string]any, path string) any {
	if v, ok := obj[path]; ok {
		return v
	}
	parts := strings.Split(path, "/")
	if len(parts) > 1 {
		if v, ok := obj[parts[len(parts)-1]]; ok {
			return v
		}
	}
	var cur any = obj
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func integer(v any) int {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func unixTime(v any) time.Time {
	var sec float64
	switch t := v.(type) {
	case float64:
		sec = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return time.Time{}
		}
		sec = parsed
	default:
		return time.Time{}
	}
	if sec <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}
