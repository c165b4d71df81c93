// Package kismetdb reads the device table of a Kismet .kismet log file.
package kismetdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/kismet"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"

	_ "modernc.org/sqlite"
)

const (
	defaultTimeout = 5 * time.Second

	devicesQuery = `SELECT devmac, type, last_time, strongest_signal, device FROM devices`
)

type Reader struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

// Open opens the log read-only. Kismet keeps writing to it while we read.
func Open(ctx context.Context, path string, timeout time.Duration, logger *slog.Logger) (*Reader, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open kismet log %s: %w", path, err)
	}
	return &Reader{db: db, timeout: timeout, logger: logger}, nil
}

func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Reader) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM devices`).Scan(&n); err != nil {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	return nil
}

// Fetch reads every logged device. Failures wrap model.ErrBackendUnavailable.
func (r *Reader) Fetch(ctx context.Context) ([]model.SightedDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	devices, err := r.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	return devices, nil
}

func (r *Reader) fetch(ctx context.Context) ([]model.SightedDevice, error) {
	rows, err := r.db.QueryContext(ctx, devicesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]model.SightedDevice, 0)
	for rows.Next() {
		var (
			mac      sql.NullString
			kind     sql.NullString
			lastTime sql.NullInt64
			signal   sql.NullInt64
			blob     []byte
		)
		if err := rows.Scan(&mac, &kind, &lastTime, &signal, &blob); err != nil {
			return nil, err
		}
		devices = append(devices, r.decode(mac.String, kind.String, lastTime, signal, blob))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// decode prefers the JSON device record and falls back to the indexed
// columns for the fields the pipeline cannot do without.
func (r *Reader) decode(mac, kind string, lastTime, signal sql.NullInt64, blob []byte) model.SightedDevice {
	var device model.SightedDevice
	if len(blob) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(blob, &obj); err != nil {
			if r.logger != nil {
				r.logger.Debug("undecodable kismet device record", "mac", mac, "err", err)
			}
		} else {
			device = kismet.DecodeDevice(obj)
		}
	}
	if device.MAC == "" {
		device.MAC = mac
	}
	if device.Type == "" {
		device.Type = kind
	}
	if device.LastSeen.IsZero() && lastTime.Valid && lastTime.Int64 > 0 {
		device.LastSeen = time.Unix(lastTime.Int64, 0).UTC()
	}
	if device.Signal == 0 && signal.Valid {
		device.Signal = int(signal.Int64)
	}
	return device
}
