package main

import (
	"bytes"
	"code-lab/infrastructure/server"
	"code-lab/runtime"
	"code-lab/runtime/workers"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch_And_Render(t *testing.T) {
	req := require.New(t)
	want := server.Stats{
		Uptime:   "42s",
		Registry: runtime.Stats{Rooms: 2, Participants: 5, Connections: 6},
		Load:     runtime.Load{InFlight: 1},
		Channels: []workers.ChannelLoad{{Name: "executions", Length: 30, Capacity: 32}},
		Breaker:  "closed",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	// When the stats are fetched
	got, err := fetch(srv.URL, time.Second)
	req.NoError(err)
	req.Equal(want, got)

	// Then both tables are rendered
	var out bytes.Buffer
	render(&out, got)
	req.Contains(out.String(), "up 42s")
	req.Contains(out.String(), "Participants")
	req.Contains(out.String(), "executions")
}

func TestFetch_Non_OK_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fetch(srv.URL, time.Second)

	require.ErrorContains(t, err, "503")
}
