package oui

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/privacy"
)

const (
	Unknown    = "Unknown"
	Randomized = "Randomized"
)

type DB struct {
	vendors map[uint32]string
}

// LoadFile reads a vendor table from path. An empty path yields an empty DB.
func LoadFile(path string) (*DB, error) {
	if path == "" {
		return &DB{vendors: map[uint32]string{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oui db: %w", err)
	}
	return Load(data)
}

// Load accepts either a JSON object of prefix to vendor, or a plain text
// table whose lines start with a prefix followed by the vendor name, as in
// the IEEE oui.txt and Wireshark manuf files.
func Load(data []byte) (*DB, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return loadJSON(trimmed)
	}
	return loadText(trimmed)
}

func loadJSON(data []byte) (*DB, error) {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	vendors := make(map[uint32]string, len(m))
	for k, v := range m {
		prefix, ok := parsePrefix(k)
		if !ok {
			return nil, fmt.Errorf("invalid oui prefix %q", k)
		}
		vendors[prefix] = strings.TrimSpace(v)
	}
	return &DB{vendors: vendors}, nil
}

func loadText(data []byte) (*DB, error) {
	vendors := map[uint32]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Longer manuf prefixes such as 00:1B:C5:00:00/36 are skipped.
		prefix, ok := parsePrefix(fields[0])
		if !ok {
			continue
		}
		name := fields[1:]
		if name[0] == "(hex)" || name[0] == "(base" {
			name = name[1:]
			if len(name) > 0 && name[0] == "16)" {
				name = name[1:]
			}
		}
		if vendor := strings.Join(name, " "); vendor != "" {
			vendors[prefix] = vendor
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &DB{vendors: vendors}, nil
}

func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.vendors)
}

// Lookup names the vendor that owns the MAC's prefix. Locally administered
// addresses are never registered and report as Randomized.
func (db *DB) Lookup(mac model.MAC) string {
	if privacy.IsLocallyAdministered(mac) {
		return Randomized
	}
	if db == nil {
		return Unknown
	}
	if vendor, ok := db.vendors[uint32(mac>>24)]; ok && vendor != "" {
		return vendor
	}
	return Unknown
}

func parsePrefix(v string) (uint32, bool) {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	v = replacer.Replace(strings.TrimSpace(v))
	if len(v) != 6 {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
