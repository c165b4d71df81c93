package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/aggregator"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/classifier"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func fiveDeviceSnapshot() []model.SightedDevice {
	return []model.SightedDevice{
		{MAC: "00:AA:BB:CC:DD:EE", Name: "office", Type: "Wi-Fi AP", Signal: -70, Noise: -95, Channel: 36, LastSeen: now.Add(-90 * time.Minute), Crypt: "WPA3 SAE"},
		{MAC: "3c:22:fb:00:00:03", Type: "Wi-Fi Client", Signal: -80, Noise: -95, Channel: 1, LastSeen: now.Add(-3 * time.Hour)},
		{MAC: "da:a1:19:00:00:02", Type: "Wi-Fi Client", Signal: -60, Noise: -92, Channel: 11, LastSeen: now.Add(-10 * time.Minute)},
		{MAC: "00:11:22:33:44:55", Name: "cafe-guest", Type: "Wi-Fi AP", Signal: -40, Noise: -90, Channel: 6, LastSeen: now.Add(-time.Minute), Crypt: "WPA2 WPA2-PSK AES-CCMP"},
		{MAC: "3c:22:fb:00:00:01", Type: "Wi-Fi Client", Signal: -55, Noise: -92, Channel: 6, LastSeen: now.Add(-2 * time.Minute)},
	}
}

func build(t *testing.T, raws []model.SightedDevice) model.Report {
	t.Helper()
	res := classifier.ClassifyAll(raws, now)
	counts := aggregator.New().Aggregate(res.Records)
	return NewAssembler("library-2nd-floor", Options{}).Assemble(res.Records, counts)
}

func TestAssembleMatchesFixture(t *testing.T) {
	expected, err := os.ReadFile(filepath.Join("testdata", "five_devices.json"))
	require.NoError(t, err)

	got, err := Encode(build(t, fiveDeviceSnapshot()))
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(got))

	var want, have model.Report
	require.NoError(t, json.Unmarshal(expected, &want))
	require.NoError(t, json.Unmarshal(got, &have))
	if diff := cmp.Diff(want, have); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	res := classifier.ClassifyAll(fiveDeviceSnapshot(), now)
	counts := aggregator.New().Aggregate(res.Records)
	asm := NewAssembler("site", Options{})

	first, err := Encode(asm.Assemble(res.Records, counts))
	require.NoError(t, err)
	second, err := Encode(asm.Assemble(res.Records, counts))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "encodings differ:\n%s\n%s", first, second)
}

func TestAssembleOrderIndependentOfInput(t *testing.T) {
	raws := fiveDeviceSnapshot()
	reversed := make([]model.SightedDevice, len(raws))
	for i := range raws {
		reversed[len(raws)-1-i] = raws[i]
	}

	a, err := Encode(build(t, raws))
	require.NoError(t, err)
	b, err := Encode(build(t, reversed))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAccessPointOrdering(t *testing.T) {
	mk := func(mac string, age time.Duration, signal int) model.SightedDevice {
		return model.SightedDevice{MAC: mac, Type: "Wi-Fi AP", Signal: signal, LastSeen: now.Add(-age)}
	}

	t.Run("age ascending", func(t *testing.T) {
		r := build(t, []model.SightedDevice{
			mk("00:00:00:00:00:01", 5000*time.Millisecond, -30),
			mk("00:00:00:00:00:02", 10*time.Millisecond, -90),
		})
		require.Len(t, r.AccessPoints, 2)
		assert.Equal(t, int64(10), r.AccessPoints[0].Age)
		assert.Equal(t, int64(5000), r.AccessPoints[1].Age)
	})

	t.Run("signal descending on equal age", func(t *testing.T) {
		r := build(t, []model.SightedDevice{
			mk("00:00:00:00:00:01", time.Second, -70),
			mk("00:00:00:00:00:02", time.Second, -40),
		})
		require.Len(t, r.AccessPoints, 2)
		assert.Equal(t, -40, r.AccessPoints[0].SignalStrength)
		assert.Equal(t, -70, r.AccessPoints[1].SignalStrength)
	})

	t.Run("no age cutoff", func(t *testing.T) {
		r := build(t, []model.SightedDevice{mk("00:00:00:00:00:01", 48*time.Hour, -50)})
		require.Len(t, r.AccessPoints, 1)
		assert.Empty(t, r.Devices)
	})
}

func TestAccessPointsAlwaysCarryCrypto(t *testing.T) {
	r := build(t, []model.SightedDevice{
		{MAC: "00:00:00:00:00:01", Type: "Wi-Fi AP", LastSeen: now},
		{MAC: "00:00:00:00:00:02", Type: "Wi-Fi Device", LastSeen: now, Crypt: "WEP"},
	})
	require.Len(t, r.AccessPoints, 1)
	require.NotNil(t, r.AccessPoints[0].Crypto)
	assert.Equal(t, "", *r.AccessPoints[0].Crypto)

	body, err := Encode(r)
	require.NoError(t, err)

	var raw struct {
		AP      []map[string]any `json:"ap"`
		Devices []map[string]any `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Contains(t, raw.AP[0], "crypto")
	for _, d := range raw.Devices {
		if d["type"] == "Wi-Fi AP" {
			assert.Contains(t, d, "crypto")
		} else {
			assert.NotContains(t, d, "crypto")
		}
	}
}

func TestDevicesExcludeOlderThanOneHour(t *testing.T) {
	var raws []model.SightedDevice
	for i, tag := range []string{"Wi-Fi AP", "Wi-Fi Client", "Wi-Fi Bridged", "Wi-Fi Device"} {
		mac := model.MAC(uint64(i + 1)).String()
		raws = append(raws,
			model.SightedDevice{MAC: mac, Type: tag, LastSeen: now.Add(-61 * time.Minute)},
			model.SightedDevice{MAC: model.MAC(uint64(i + 100)).String(), Type: tag, LastSeen: now.Add(-time.Hour)},
		)
	}
	r := build(t, raws)
	require.Len(t, r.Devices, 4)
	for _, d := range r.Devices {
		assert.LessOrEqual(t, d.Age, time.Hour.Milliseconds())
	}
}

func TestUnknownCategoryAppearsNowhere(t *testing.T) {
	r := build(t, []model.SightedDevice{
		{MAC: "3c:22:fb:00:00:09", Type: "Wi-Fi Ad-Hoc", LastSeen: now},
		{MAC: "3c:22:fb:00:00:0a", Type: "BTLE", LastSeen: now},
	})
	assert.Empty(t, r.AccessPoints)
	assert.Empty(t, r.Devices)
	assert.Equal(t, model.ClientCount{}, r.ClientCount)

	body, err := Encode(r)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ap":[]`)
	assert.Contains(t, string(body), `"devices":[]`)
}

func TestMaxAccessPoints(t *testing.T) {
	var raws []model.SightedDevice
	for i := 0; i < 5; i++ {
		raws = append(raws, model.SightedDevice{
			MAC:      model.MAC(uint64(i + 1)).String(),
			Type:     "Wi-Fi AP",
			Signal:   -40 - i,
			LastSeen: now,
		})
	}
	res := classifier.ClassifyAll(raws, now)
	r := NewAssembler("s", Options{MaxAccessPoints: 2}).Assemble(res.Records, model.ClientCount{})
	require.Len(t, r.AccessPoints, 2)
	assert.Equal(t, -40, r.AccessPoints[0].SignalStrength)
	assert.Equal(t, -41, r.AccessPoints[1].SignalStrength)
	assert.Len(t, r.Devices, 5)
}
