package model

// Report is the payload posted to the collector once per cycle.
type Report struct {
	Name         string      `json:"name"`
	AccessPoints []Entry     `json:"ap"`
	ClientCount  ClientCount `json:"client_count"`
	Devices      []Entry     `json:"devices"`
}

// Entry describes one device in either the ap or devices list.
// Crypto is only set for access points.
type Entry struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	MACAddress         string  `json:"macAddress"`
	SignalStrength     int     `json:"signalStrength"`
	Age                int64   `json:"age"`
	Channel            int     `json:"channel"`
	SignalToNoiseRatio int     `json:"signalToNoiseRatio"`
	Crypto             *string `json:"crypto,omitempty"`
}

type ClientCount struct {
	FilteredLast5Mins int `json:"filtered_num_last_5_mins"`
	FilteredLastHour  int `json:"filtered_num_last_hour"`
	ClientsLast5Mins  int `json:"num_clients_last_5_mins"`
	ClientsLastHour   int `json:"num_clients_last_hour"`
}
