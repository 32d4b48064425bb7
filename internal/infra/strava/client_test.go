package strava

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

const detailJSON = `{
	"id": 99, "name": "Lunch Ride", "type": "Ride", "sport_type": "MountainBikeRide",
	"start_date": "2025-06-10T05:00:00Z", "distance": 25000, "moving_time": 3600, "elapsed_time": 3900,
	"total_elevation_gain": 420, "average_heartrate": 148.2, "max_heartrate": 181,
	"average_speed": 6.9, "average_watts": 190,
	"gear": {"id": "b1", "name": "Trek Fuel", "nickname": "Fuel"}
}`

const streamsJSON = `{
	"time": {"data": [0, 1, 2]},
	"distance": {"data": [0, 7, 14]},
	"heartrate": {"data": [120, 130, 140]},
	"velocity_smooth": {"data": [7, 7, 7]}
}`

func newStravaServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
		case "Bearer gone":
			w.WriteHeader(http.StatusNotFound)
			return
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/activities/99/streams"):
			require.Equal(t, "true", r.URL.Query().Get("key_by_type"))
			_, _ = w.Write([]byte(streamsJSON))
		case strings.HasSuffix(r.URL.Path, "/activities/99"):
			_, _ = w.Write([]byte(detailJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_Activity(t *testing.T) {
	srv := newStravaServer(t, nil)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	activity, samples, err := client.Activity(context.Background(), "good", 99)
	require.NoError(t, err)
	require.Equal(t, "Lunch Ride", activity.Name)
	require.Equal(t, "MountainBikeRide", activity.SportType)
	require.Equal(t, "Fuel", activity.Gear.DisplayName())
	require.InDelta(t, 148.2, *activity.AverageHeartRate, 0.001)
	require.Nil(t, activity.AverageCadence)

	require.Len(t, samples, 3)
	require.Equal(t, 14.0, samples[2].Distance)
	require.Equal(t, 140.0, *samples[2].HeartRate)
	require.Nil(t, samples[0].Watts)
}

func TestClient_Errors(t *testing.T) {
	srv := newStravaServer(t, nil)
	defer srv.Close()
	client := NewClient(srv.URL, time.Second)

	_, _, err := client.Activity(context.Background(), "expired", 99)
	require.ErrorIs(t, err, analysis.ErrSourceUnauthorized)

	_, _, err = client.Activity(context.Background(), "gone", 99)
	require.ErrorIs(t, err, analysis.ErrActivityNotFound)
}

func TestClient_Streams(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "no streams recorded", status: http.StatusNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "/streams") {
					w.WriteHeader(tc.status)
					return
				}
				_, _ = w.Write([]byte(detailJSON))
			}))
			defer srv.Close()

			activity, samples, err := NewClient(srv.URL, time.Second).Activity(context.Background(), "good", 99)
			if tc.wantErr {
				require.Error(t, err)
				require.False(t, errors.Is(err, analysis.ErrActivityNotFound))
				require.Empty(t, samples)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(99), activity.ID)
			require.Empty(t, samples)
		})
	}
}

func TestCachedSource_DoesNotCacheStreamFailures(t *testing.T) {
	var streamCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/streams") {
			if streamCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(streamsJSON))
			return
		}
		_, _ = w.Write([]byte(detailJSON))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cached := NewCachedSource(NewClient(srv.URL, time.Second), 8*1024*1024, time.Hour, 200, logger)

	_, _, err := cached.Activity(context.Background(), "good", 99)
	require.Error(t, err)

	_, samples, err := cached.Activity(context.Background(), "good", 99)
	require.NoError(t, err)
	require.Len(t, samples, 3)
}

func TestCachedSource(t *testing.T) {
	var calls atomic.Int32
	srv := newStravaServer(t, &calls)
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cached := NewCachedSource(NewClient(srv.URL, time.Second), 8*1024*1024, time.Hour, 200, logger)

	first, _, err := cached.Activity(context.Background(), "good", 99)
	require.NoError(t, err)
	second, samples, err := cached.Activity(context.Background(), "good", 99)
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)
	require.Len(t, samples, 3)
	require.EqualValues(t, 2, calls.Load())

	hits, _ := cached.Stats()
	require.EqualValues(t, 1, hits)

	_, _, err = cached.Activity(context.Background(), "other", 99)
	require.True(t, errors.Is(err, analysis.ErrSourceUnauthorized))
}
