package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() model.Report {
	crypt := "WPA2"
	return model.Report{
		Name: "lobby",
		AccessPoints: []model.Entry{{
			Name: "guest", Type: "Wi-Fi AP", MACAddress: "00:11:22:33:44:55",
			SignalStrength: -40, Age: 1000, Channel: 6, SignalToNoiseRatio: 50, Crypto: &crypt,
		}},
		ClientCount: model.ClientCount{FilteredLast5Mins: 1, FilteredLastHour: 2, ClientsLast5Mins: 3, ClientsLastHour: 4},
	}
}

func TestSendPostsJSON(t *testing.T) {
	var (
		gotBody    map[string]any
		gotAuth    string
		gotReqID   string
		gotContent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotContent = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ack, err := New(Config{Endpoint: srv.URL + "/ingest", Token: "t0k", Timeout: time.Second}).Send(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, ack.StatusCode)
	assert.Equal(t, gotReqID, ack.RequestID)
	assert.NotEmpty(t, ack.RequestID)
	assert.Equal(t, "Bearer t0k", gotAuth)
	assert.Equal(t, "application/json", gotContent)
	assert.Equal(t, "lobby", gotBody["name"])
	assert.Equal(t, []any{}, gotBody["devices"])

	counts, ok := gotBody["client_count"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4, counts["num_clients_last_hour"])
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL}).Send(context.Background(), sampleReport())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRejected)
	assert.False(t, errors.Is(err, model.ErrUnreachable))

	var rejected *model.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnprocessableEntity, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "bad payload")
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := New(Config{Endpoint: endpoint, Timeout: time.Second}).Send(context.Background(), sampleReport())
	assert.ErrorIs(t, err, model.ErrUnreachable)
}

func TestSendTimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}).Send(context.Background(), sampleReport())
	assert.ErrorIs(t, err, model.ErrUnreachable)
}
